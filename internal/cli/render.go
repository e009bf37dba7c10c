package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/absher-session/internal/model"
	"github.com/Veraticus/absher-session/internal/session"
	"github.com/charmbracelet/lipgloss"
)

const progressWidth = 20

// FormatAmount renders a riyal amount, dropping the fraction when it is zero.
func FormatAmount(amount float64) string {
	if amount == float64(int64(amount)) {
		return strconv.FormatInt(int64(amount), 10) + " ريال"
	}
	return strconv.FormatFloat(amount, 'f', 2, 64) + " ريال"
}

// RenderProgress draws the paid share of the fee as a bar, followed by the
// unpaid share while anything remains.
func RenderProgress(p model.PaymentState) string {
	filled := int(p.PaidFraction()*progressWidth + 0.5)
	filled = min(max(filled, 0), progressWidth)

	bar := ProgressStyle.Render(strings.Repeat("█", filled)) +
		SubtleStyle.Render(strings.Repeat("░", progressWidth-filled))
	out := fmt.Sprintf("%s %3.0f%%", bar, p.PaidFraction()*100)
	if left := p.RemainingFraction(); left > 0 {
		out += SubtleStyle.Render(fmt.Sprintf(" (متبقي %.0f%%)", left*100))
	}
	return out
}

// RenderSession renders the screen, the selected service and the payment
// progress.
func RenderSession(state session.State, details model.ServiceDetails) string {
	p := state.Payment

	lines := []string{
		BoldStyle.Render("الشاشة: ") + state.Screen.String(),
		BoldStyle.Render("الخدمة: ") + details.Title,
		BoldStyle.Render("الرسوم: ") + details.FeesText,
		BoldStyle.Render("المدفوع: ") + FormatAmount(p.PaidAmount) + " / " + FormatAmount(p.TotalFee),
		BoldStyle.Render("المتبقي: ") + FormatAmount(p.Remaining()),
		BoldStyle.Render("المبلغ المختار: ") + FormatAmount(p.SelectedPaymentAmount),
		RenderProgress(p),
	}
	if details.IsLate {
		lines = append(lines, FormatWarning(details.BeneficiaryStatus))
	}
	if state.Busy {
		lines = append(lines, InfoStyle.Render(SpinnerIcon+" جاري المعالجة..."))
	}

	return RenderBox(FormatTitle("أبشر"), lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// RenderVerification renders the verification state and, when present, each
// proof in the snapshot with its age relative to now.
func RenderVerification(state model.VerificationState, snapshot *model.VerificationSnapshot, now time.Time) string {
	var header string
	switch state.Phase {
	case model.VerificationLoading:
		header = InfoStyle.Render(SpinnerIcon + " جاري التحقق عبر توكلنا...")
	case model.VerificationLoaded:
		header = FormatSuccess("تم التحقق")
	case model.VerificationFailed:
		header = FormatError(state.Message) + "\n" + SubtleStyle.Render("/verify لإعادة المحاولة")
	default:
		header = SubtleStyle.Render("لم يتم التحقق بعد")
	}

	if snapshot == nil {
		return header
	}

	lines := []string{header}
	for _, proof := range snapshot.Proofs {
		icon := SuccessStyle.Render(SuccessIcon)
		if proof.Status != model.ProofVerified {
			icon = ErrorStyle.Render(ErrorIcon)
		}
		lines = append(lines,
			fmt.Sprintf("%s %s", icon, proof.Headline),
			SubtleStyle.Render(fmt.Sprintf("  %s · %s · %s", proof.Source, proof.Reference, formatAge(now.Sub(proof.LastSynced)))),
		)
	}
	return strings.Join(lines, "\n")
}

// RenderMessage renders one chat message. linkIndex numbers the message's
// deep link for /open and is ignored when the message has none.
func RenderMessage(msg model.ChatMessage, linkIndex int) string {
	icon := RobotIcon
	style := lipgloss.NewStyle()
	if msg.IsUser() {
		icon = UserIcon
		style = BoldStyle
	}

	out := icon + " " + style.Render(msg.Text)
	if msg.DeepLink != nil {
		out += "\n   " + LinkStyle.Render(fmt.Sprintf("%s [%d] %s", LinkIcon, linkIndex, msg.DeepLink.Title))
	}
	return out
}

// RenderSuggestions renders the chips numbered from 1.
func RenderSuggestions(chips []model.SuggestionChip) string {
	if len(chips) == 0 {
		return ""
	}

	lines := make([]string, 0, len(chips))
	for i, chip := range chips {
		lines = append(lines, LinkStyle.Render(fmt.Sprintf("%s [%d] %s", BellIcon, i+1, chip.DisplayText)))
	}
	return strings.Join(lines, "\n")
}

// RenderDocuments renders the profile header and document list.
func RenderDocuments(profile model.Profile, documents []model.Document) string {
	lines := []string{BoldStyle.Render(profile.Name), SubtleStyle.Render(profile.IDNumber)}
	for _, doc := range documents {
		status := SuccessStyle.Render("ساري")
		switch doc.Status {
		case model.DocumentExpiringSoon:
			status = WarningStyle.Render("ينتهي قريباً")
		case model.DocumentExpired:
			status = ErrorStyle.Render("منتهي")
		case model.DocumentValid:
		}
		line := fmt.Sprintf("• %s: %s", doc.Title, status)
		if doc.DaysRemaining != nil {
			line += SubtleStyle.Render(fmt.Sprintf(" (%d يوم)", *doc.DaysRemaining))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func formatAge(d time.Duration) string {
	if d < time.Minute {
		return "الآن"
	}
	return fmt.Sprintf("قبل %d دقيقة", int(d.Minutes()))
}
