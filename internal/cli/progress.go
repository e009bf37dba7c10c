package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/schollz/progressbar/v3"
)

const spinnerInterval = 100 * time.Millisecond

// RunWithSpinner shows an indeterminate spinner with description on w while
// fn runs and returns fn's error.
func RunWithSpinner(w io.Writer, description string, fn func() error) error {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetDescription("[green]"+description+"[reset]"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-done:
			if finishErr := bar.Finish(); finishErr != nil {
				slog.Warn("Failed to finish spinner", "error", finishErr)
			}
			return err
		case <-ticker.C:
			if err := bar.Add(1); err != nil {
				slog.Warn("Failed to update spinner", "error", err)
			}
		}
	}
}

// PaymentBar draws payment progress toward the total fee.
type PaymentBar struct {
	bar *progressbar.ProgressBar
}

// NewPaymentBar creates a bar for a fee of total riyals.
func NewPaymentBar(w io.Writer, total float64) *PaymentBar {
	return &PaymentBar{
		bar: progressbar.NewOptions64(int64(total),
			progressbar.OptionSetWriter(w),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetDescription("[green][bold]المدفوع[reset]"),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerHead:    "[green]>[reset]",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
			progressbar.OptionOnCompletion(func() {
				if _, err := fmt.Fprintln(w); err != nil {
					slog.Warn("Failed to write newline after progress bar", "error", err)
				}
			}),
		),
	}
}

// Set moves the bar to paid riyals.
func (p *PaymentBar) Set(paid float64) {
	if err := p.bar.Set64(int64(paid)); err != nil {
		slog.Warn("Failed to update payment bar", "error", err)
	}
}
