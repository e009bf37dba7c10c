package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/absher-session/internal/chat"
	"github.com/Veraticus/absher-session/internal/cli"
	"github.com/Veraticus/absher-session/internal/model"
	"github.com/spf13/cobra"
)

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the assistant and act on its deep links",
		Long: `Start an interactive session. Plain text is sent to the assistant and the
reply streams in token by token. Slash commands tap chips, open deep links,
and pay. Type /help for the list.`,
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
			handler := cli.NewInterruptHandler(out, "Chat interrupted!")
			ctx := handler.HandleInterrupts(cmd.Context())

			a := newApp(cfg, catalog, func(token string) {
				_, _ = fmt.Fprint(out, token)
			})
			defer a.close()

			if cfg.MetricsAddr != "" {
				a.serveMetrics(ctx, cfg.MetricsAddr)
			}

			err = runChat(ctx, cli.NewNonBlockingReader(cmd.InOrStdin()), out, a)
			if handler.WasInterrupted() {
				return nil
			}
			return err
		},
	}
}

// repl holds the chat loop state that is not owned by a component.
type repl struct {
	a     *app
	links []model.DeepLink
	p     printer
}

func runChat(ctx context.Context, in *cli.NonBlockingReader, out io.Writer, a *app) error {
	r := &repl{a: a, p: printer{w: out}}

	if err := cli.RunWithSpinner(out, "تحميل النموذج", func() error {
		return a.loadModel(ctx)
	}); err != nil {
		return err
	}

	a.machine.EnterHome()
	r.p.line(cli.FormatTitle("مساعد أبشر"))
	r.p.line(cli.RenderSuggestions(a.chat.LoadSuggestions()))
	r.p.line(cli.SubtleStyle.Render("/help للأوامر"))

	for {
		r.p.text(cli.FormatPrompt("أنت"))
		cmd, err := in.ReadCommand(ctx)
		switch {
		case errors.Is(err, io.EOF), errors.Is(err, cli.ErrInputCancelled):
			r.p.line("")
			return nil
		case errors.Is(err, cli.ErrInvalidCommand):
			r.p.line(cli.FormatError(err.Error()))
			continue
		case err != nil:
			return fmt.Errorf("failed to read input: %w", err)
		}

		if cmd.Kind == cli.CommandQuit {
			return nil
		}
		r.handle(ctx, cmd)
	}
}

func (r *repl) handle(ctx context.Context, cmd cli.Command) {
	a := r.a

	switch cmd.Kind {
	case cli.CommandEmpty:
	case cli.CommandMessage:
		r.turn(func() bool { return a.chat.SendMessage(ctx, cmd.Text) })
	case cli.CommandChip:
		chips := a.chat.Suggestions()
		if cmd.Index > len(chips) {
			r.p.line(cli.FormatError(fmt.Sprintf("لا يوجد اقتراح رقم %d", cmd.Index)))
			return
		}
		chip := chips[cmd.Index-1]
		r.p.line(cli.RenderMessage(model.ChatMessage{Text: chip.DisplayText, Origin: model.OriginUser}, 0))
		r.turn(func() bool { return a.chat.HandleSuggestionTap(ctx, chip) })
	case cli.CommandOpen:
		if cmd.Index > len(r.links) {
			r.p.line(cli.FormatError(fmt.Sprintf("لا يوجد رابط رقم %d", cmd.Index)))
			return
		}
		link := r.links[cmd.Index-1]
		a.machine.Navigate(a.chat.HandleDeepLinkTap(link), link.Service)
		r.showSession()
	case cli.CommandReview:
		a.machine.OpenReview(cmd.Service)
		r.showSession()
	case cli.CommandPay:
		r.pay(ctx, cmd.Amount)
	case cli.CommandFree:
		if details := r.review(); details.RequiresPayment() {
			r.p.line(cli.FormatWarning("هذه الخدمة برسوم " + cli.FormatAmount(details.FeeAmount) + "، استخدم /pay"))
			return
		}
		r.process(ctx, "جاري الاعتماد", func() bool { return a.machine.ApproveFree(ctx) })
	case cli.CommandHome:
		a.machine.EnterHome()
		r.showSession()
	case cli.CommandVerify:
		if err := a.machine.RefreshVerification(ctx); err != nil {
			slog.Debug("Verification refresh failed", "error", err)
		}
		r.p.line(renderVerification(a))
	case cli.CommandState:
		r.showSession()
		r.p.line(renderVerification(a))
	case cli.CommandReset:
		a.machine.Reset()
		r.links = nil
		r.p.line(cli.FormatInfo("تمت إعادة الجلسة"))
	case cli.CommandHelp:
		r.p.line(cli.HelpText)
	case cli.CommandQuit:
	}
}

// turn runs one conversation turn. The first reply has already streamed
// through the token sink, so only its link is printed; later replies are
// printed in full.
func (r *repl) turn(run func() bool) {
	before := len(r.a.chat.Messages())
	r.p.text(cli.RobotIcon + " ")
	if !run() {
		r.p.line(cli.FormatWarning("جاري معالجة الطلب السابق"))
		return
	}
	r.p.line("")

	for i, msg := range r.a.chat.Messages()[before:] {
		if msg.IsUser() {
			continue
		}
		if msg.Text == chat.ApologyText {
			r.p.line(cli.FormatError(msg.Text))
			continue
		}

		index := 0
		if msg.DeepLink != nil {
			r.links = append(r.links, *msg.DeepLink)
			index = len(r.links)
		}

		switch {
		case i > 1:
			r.p.line(cli.RenderMessage(msg, index))
		case msg.DeepLink != nil:
			r.p.line(cli.LinkStyle.Render(fmt.Sprintf("   %s [%d] %s", cli.LinkIcon, index, msg.DeepLink.Title)))
		}
	}
}

// review makes sure the review screen for the selected service is showing
// and returns its details.
func (r *repl) review() model.ServiceDetails {
	m := r.a.machine
	if m.State().Screen != model.ScreenReview {
		return m.OpenReview(m.State().Selection)
	}
	return m.CurrentServiceDetails()
}

func (r *repl) pay(ctx context.Context, amount float64) {
	a := r.a
	if !r.review().RequiresPayment() {
		r.process(ctx, "جاري الاعتماد", func() bool { return a.machine.ApproveFree(ctx) })
		return
	}
	if a.machine.State().Payment.IsSettled() {
		r.p.line(cli.FormatInfo("تم سداد الرسوم بالكامل"))
		return
	}

	if amount == 0 {
		r.process(ctx, "جاري الدفع", func() bool { return a.machine.ApproveSelected(ctx) })
		return
	}
	r.process(ctx, "جاري الدفع "+cli.FormatAmount(amount), func() bool { return a.machine.Approve(ctx, amount) })
}

func (r *repl) process(ctx context.Context, description string, run func() bool) {
	var applied bool
	if err := cli.RunWithSpinner(r.p.w, description, func() error {
		applied = run()
		return ctx.Err()
	}); err != nil {
		return
	}
	if !applied {
		r.p.line(cli.FormatWarning("لم يتم تنفيذ الطلب"))
	}
	r.showSession()
}

func (r *repl) showSession() {
	r.p.line(cli.RenderSession(r.a.machine.State(), r.a.machine.CurrentServiceDetails()))
}
