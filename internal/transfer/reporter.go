package transfer

import (
	"io"

	"github.com/schollz/progressbar/v3"
)

// Reporter displays the progress of one download.
type Reporter interface {
	Start(total int64)
	Advance(n int64)
	Finish()
	Fail(err error)
}

// ReporterFunc creates a Reporter for the named download.
type ReporterFunc func(name string) Reporter

// Quiet creates reporters that display nothing.
func Quiet(string) Reporter {
	return quietReporter{}
}

type quietReporter struct{}

func (quietReporter) Start(int64)   {}
func (quietReporter) Advance(int64) {}
func (quietReporter) Finish()       {}
func (quietReporter) Fail(error)    {}

// ProgressBar returns a factory of progress bars written to w. An unknown
// total renders as a spinner.
func ProgressBar(w io.Writer) ReporterFunc {
	return func(name string) Reporter {
		return &barReporter{w: w, name: name}
	}
}

type barReporter struct {
	w    io.Writer
	name string
	bar  *progressbar.ProgressBar
}

func (b *barReporter) Start(total int64) {
	b.bar = progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(b.w),
		progressbar.OptionSetDescription(b.name),
		progressbar.OptionShowBytes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionOnCompletion(func() {
			_, _ = io.WriteString(b.w, "\n")
		}),
	)
}

func (b *barReporter) Advance(n int64) {
	if b.bar != nil {
		_ = b.bar.Add64(n)
	}
}

func (b *barReporter) Finish() {
	if b.bar != nil {
		_ = b.bar.Finish()
	}
}

func (b *barReporter) Fail(error) {
	if b.bar != nil {
		_ = b.bar.Exit()
	}
}
