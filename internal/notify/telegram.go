// FilePath: internal/notify/telegram.go

// Package notify formats alert messages and dispatches them through the
// Telegram bot API. Dispatch never returns an error to callers: a failed or
// unconfigured send is logged and reported as false, so a broken chat
// channel cannot stall the monitoring loop.
package notify

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	nuts "github.com/vaudience/go-nuts"

	"github.com/verdelab/greenhub/internal/evaluate"
	"github.com/verdelab/greenhub/internal/models"
)

// DefaultAPIBase is the Telegram bot API root. Tests point it at a local
// httptest server.
const DefaultAPIBase = "https://api.telegram.org"

const defaultTimeout = 5 * time.Second

// Credentials identifies the bot and target chat for one send.
type Credentials struct {
	BotToken string
	ChatID   string
}

// CredentialSource yields the current credentials; backed by the settings
// store so token changes take effect without restarting.
type CredentialSource interface {
	TelegramCredentials() Credentials
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// Notifier sends Markdown messages to a Telegram chat.
type Notifier struct {
	client  *resty.Client
	creds   CredentialSource
	apiBase string
}

// New creates a Notifier with the given credential source.
func New(creds CredentialSource, timeout time.Duration) *Notifier {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		client:  resty.New().SetTimeout(timeout),
		creds:   creds,
		apiBase: DefaultAPIBase,
	}
}

// SetAPIBase overrides the Telegram API root, for tests.
func (n *Notifier) SetAPIBase(base string) {
	n.apiBase = base
}

// Send posts a Markdown message to the configured chat. Missing credentials
// or a non-2xx response yield false; the response body is logged for
// diagnosis and the call is not retried.
func (n *Notifier) Send(message string) bool {
	creds := n.creds.TelegramCredentials()
	if creds.BotToken == "" || creds.ChatID == "" {
		nuts.L.Errorf("[Notify] Telegram credentials missing, cannot send")
		return false
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.apiBase, creds.BotToken)
	resp, err := n.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(sendMessageRequest{
			ChatID:    creds.ChatID,
			Text:      message,
			ParseMode: "Markdown",
		}).
		Post(url)
	if err != nil {
		nuts.L.Errorf("[Notify] Telegram request failed: %v", err)
		return false
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		nuts.L.Errorf("[Notify] Telegram API returned %d: %s", resp.StatusCode(), resp.String())
		return false
	}

	nuts.L.Infof("[Notify] Telegram message delivered")
	return true
}

// SendViolation formats and sends an alert for one violation.
func (n *Notifier) SendViolation(v models.Violation) bool {
	return n.Send(FormatViolation(v, time.Now()))
}

// SendTestMessage sends the canned operational check message.
func (n *Notifier) SendTestMessage() bool {
	message := "🧪 *TEST MESSAGE* 🧪\n\n" +
		"The monitoring system is operational.\n" +
		"Alerts will be sent when readings leave the configured ranges.\n\n" +
		fmt.Sprintf("_%s_", time.Now().Format("2006-01-02 15:04:05"))
	return n.Send(message)
}

// SendStartupMessage announces that monitoring resumed, e.g. after a restart
// with enabled settings.
func (n *Notifier) SendStartupMessage(intervalMinutes int) bool {
	message := "🟢 *MONITORING STARTED*\n\n" +
		fmt.Sprintf("Checking sensors every %d minutes.", intervalMinutes)
	return n.Send(message)
}

// FormatViolation renders one violation as a Markdown alert. Inactive
// violations get their own layout; parameter violations show the measured
// value, the optimal band and the acceptable band (optimal widened by the
// severity margin).
func FormatViolation(v models.Violation, now time.Time) string {
	if v.Parameter == models.ParamInactive {
		return formatInactive(v, now)
	}

	icon := "🟠"
	label := "warning"
	if v.Severity == models.SeverityCritical {
		icon = "🔴"
		label = "CRITICAL"
	}

	unit := v.Parameter.Unit()
	margin := marginFor(v.Parameter)

	return fmt.Sprintf("%s *%s ALERT* %s\n\n", icon, label, icon) +
		fmt.Sprintf("*Sensor:* %s\n", displaySource(v.SourceID)) +
		fmt.Sprintf("*Parameter:* %s\n", v.Parameter.DisplayName()) +
		fmt.Sprintf("*Value:* %.1f%s\n", v.Value, unit) +
		fmt.Sprintf("*Optimal range:* %.0f%s - %.0f%s\n", v.Band.Min, unit, v.Band.Max, unit) +
		fmt.Sprintf("*Acceptable range:* %.0f%s - %.0f%s\n\n", v.Band.Min-margin, unit, v.Band.Max+margin, unit) +
		fmt.Sprintf("*Stage:* %s\n", v.Stage) +
		fmt.Sprintf("_%s_", now.Format("2006-01-02 15:04:05"))
}

func formatInactive(v models.Violation, now time.Time) string {
	downtime := now.Sub(v.LastSeen)
	hours := int(downtime.Hours())
	minutes := int(downtime.Minutes()) % 60

	return "⚠️ *ALERT: SENSOR INACTIVE* ⚠️\n\n" +
		fmt.Sprintf("*%s* has not reported data for over an hour.\n\n", displaySource(v.SourceID)) +
		fmt.Sprintf("Last reading: %s\n", v.LastSeen.Format("2006-01-02 15:04:05")) +
		fmt.Sprintf("Inactive for: %dh %dm", hours, minutes)
}

func marginFor(kind models.ParameterKind) float64 {
	switch kind {
	case models.ParamTemperature:
		return evaluate.TemperatureMargin
	case models.ParamHumidity:
		return evaluate.HumidityMargin
	case models.ParamSoilHumidity:
		return evaluate.SoilHumidityMargin
	}
	return 0
}

// displaySource turns sensor_2 into "Sensor 2".
func displaySource(sourceID string) string {
	if len(sourceID) > len("sensor_") && sourceID[:len("sensor_")] == "sensor_" {
		return "Sensor " + sourceID[len("sensor_"):]
	}
	return sourceID
}
