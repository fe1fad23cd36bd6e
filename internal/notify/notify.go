package notify

import "go.uber.org/zap"

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notice is one user-facing notification emitted by the onboarding flow.
type Notice struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Notifier receives user-facing notices. Injected so the service never
// depends on a concrete notification channel.
type Notifier interface {
	Notify(notice Notice)
}

// ZapNotifier logs notices through the application logger.
type ZapNotifier struct {
	logger *zap.Logger
}

func NewZapNotifier(logger *zap.Logger) *ZapNotifier {
	return &ZapNotifier{logger: logger}
}

func (n *ZapNotifier) Notify(notice Notice) {
	field := zap.String("severity", string(notice.Severity))
	switch notice.Severity {
	case SeverityError:
		n.logger.Error(notice.Message, field)
	case SeverityWarning:
		n.logger.Warn(notice.Message, field)
	default:
		n.logger.Info(notice.Message, field)
	}
}

// Recorder collects notices for assertions in tests.
type Recorder struct {
	Notices []Notice
}

func (r *Recorder) Notify(notice Notice) {
	r.Notices = append(r.Notices, notice)
}
