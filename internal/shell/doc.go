// Package shell puts the kaleido link directories on the operator's PATH.
//
// `kaleido env <shell>` prints a snippet that prepends <home>/bin and
// <home>/alias to PATH. `kaleido env --setup` appends a line evaluating that
// snippet to the shell's rc file:
//
//	bash: ~/.bashrc       eval "$(kaleido env bash)"
//	zsh:  ~/.zshrc        eval "$(kaleido env zsh)"
//	fish: ~/.config/fish/config.fish
//	                      kaleido env fish | source
//
// Rc file changes are idempotent, backed up with a timestamp before writing,
// and written atomically through a temporary file and rename.
package shell
