package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Veraticus/absher-session/internal/cli"
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/spf13/cobra"
)

func demoCmd() *cobra.Command {
	var firstPayment float64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the scripted partial-payment walkthrough",
		Long: `Run the full session once: open home, tap the proactive alert chip,
follow the reply's deep link to review, pay part of the fee, then settle
the rest.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			catalog, err := loadCatalog(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			handler := cli.NewInterruptHandler(out, "Demo interrupted!")
			ctx := handler.HandleInterrupts(cmd.Context())

			a := newApp(cfg, catalog, func(token string) {
				_, _ = fmt.Fprint(out, token)
			})
			defer a.close()

			return runDemo(ctx, out, a, firstPayment)
		},
	}

	cmd.Flags().Float64Var(&firstPayment, "first-payment", 1000, "amount of the first partial payment in SAR")

	return cmd
}

func runDemo(ctx context.Context, out io.Writer, a *app, firstPayment float64) error {
	p := printer{w: out}

	p.line(cli.FormatTitle("أبشر"))
	p.line(cli.RenderDocuments(a.catalog.Profile(), a.catalog.Documents()))

	if err := cli.RunWithSpinner(out, "تحميل النموذج", func() error {
		return a.loadModel(ctx)
	}); err != nil {
		return err
	}

	a.machine.EnterHome()
	a.machine.Wait()
	p.line(renderVerification(a))

	chips := a.chat.LoadSuggestions()
	if len(chips) == 0 {
		p.line(cli.FormatInfo("لا توجد تنبيهات"))
		a.machine.OpenReview(model.ServiceDrivingLicense)
	} else {
		p.line(cli.RenderSuggestions(chips))
		p.line(cli.RenderMessage(model.ChatMessage{Text: chips[0].DisplayText, Origin: model.OriginUser}, 0))
		p.text(cli.RobotIcon + " ")

		if !a.chat.HandleSuggestionTap(ctx, chips[0]) {
			return fmt.Errorf("suggestion tap was not accepted")
		}
		p.line("")
		if err := ctx.Err(); err != nil {
			return err
		}

		link := lastLink(a.chat.Messages(), model.ServiceDependents)
		if link == nil {
			a.machine.OpenReview(model.ServiceDrivingLicense)
		} else {
			p.line(cli.LinkStyle.Render(cli.LinkIcon + " " + link.Title))
			a.machine.Navigate(a.chat.HandleDeepLinkTap(*link), link.Service)
		}
		for _, msg := range a.chat.Messages() {
			if msg.DeepLink != nil && msg.DeepLink.Service == model.ServiceDependents {
				p.line(cli.RenderMessage(msg, 0))
			}
		}
	}

	a.machine.Wait()
	p.line(cli.RenderSession(a.machine.State(), a.machine.CurrentServiceDetails()))

	bar := cli.NewPaymentBar(out, a.machine.State().Payment.TotalFee)
	for _, amount := range []float64{firstPayment, a.machine.State().Payment.Remaining() - firstPayment} {
		if amount <= 0 {
			continue
		}
		if a.machine.State().Screen != model.ScreenReview {
			a.machine.OpenReview(a.machine.State().Selection)
		}

		var applied bool
		if err := cli.RunWithSpinner(out, "جاري الدفع "+cli.FormatAmount(amount), func() error {
			applied = a.machine.Approve(ctx, amount)
			return ctx.Err()
		}); err != nil {
			return err
		}
		if !applied {
			p.line(cli.FormatWarning("لم يتم تطبيق الدفعة"))
			continue
		}

		bar.Set(a.machine.State().Payment.PaidAmount)
		p.line("")
		p.line(cli.RenderSession(a.machine.State(), a.machine.CurrentServiceDetails()))
	}

	if a.machine.State().Screen == model.ScreenConfirmation {
		p.line(cli.FormatSuccess("تم تجديد الخدمة بنجاح"))
	}
	return nil
}

// lastLink returns the most recent deep link that does not target skip.
func lastLink(messages []model.ChatMessage, skip model.ServiceKind) *model.DeepLink {
	for i := len(messages) - 1; i >= 0; i-- {
		if link := messages[i].DeepLink; link != nil && link.Service != skip {
			return link
		}
	}
	return nil
}

func renderVerification(a *app) string {
	state, snapshot := a.machine.Verification()
	return cli.RenderVerification(state, snapshot, time.Now())
}

// printer writes lines and drops write errors, which only happen when the
// terminal is gone.
type printer struct {
	w io.Writer
}

func (p printer) line(s string) {
	_, _ = fmt.Fprintln(p.w, s)
}

func (p printer) text(s string) {
	_, _ = fmt.Fprint(p.w, s)
}
