// Package protect adds the print-protection overlay to an assembled PDF.
//
// Every page is covered by an opaque, locked annotation. Embedded JavaScript hides the
// annotations and starts printing when the document is opened before its expiration,
// and shows them again once printing is done. This only works in viewers that execute
// document JavaScript; any other viewer (or a tool that strips annotations) defeats it.
// It is a cooperative convention, not an access-control mechanism.
package protect

import (
	"time"
)

// Marker tags overlay annotations (/NM). Scripts in earlier documents look for this exact value.
const Marker = "ScreenProtector"

// DefaultExpiry is used when no offset is configured.
const DefaultExpiry = 24 * time.Hour

// State is what the overlay stores in a document.
type State struct {
	// Expiration is a UTC instant with minute precision.
	Expiration time.Time
	Marker     string
}

// NewState 以文档组装时间加上 offset 作为过期时间（UTC，截断到分钟，与脚本参数精度一致）。
func NewState(assembledAt time.Time, offset time.Duration) State {
	if offset <= 0 {
		offset = DefaultExpiry
	}
	return State{
		Expiration: assembledAt.Add(offset).UTC().Truncate(time.Minute),
		Marker:     Marker,
	}
}

func (s State) marker() string {
	if s.Marker == "" {
		return Marker
	}
	return s.Marker
}

// Phase is a viewer-side state of a protected document.
type Phase int

const (
	Concealed Phase = iota
	Revealed
	Closed
)

func (p Phase) String() string {
	switch p {
	case Concealed:
		return "concealed"
	case Revealed:
		return "revealed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// Viewer models what the embedded scripts do inside a cooperating viewer.
type Viewer struct {
	State State

	Phase            Phase
	ProtectorsHidden bool
	PrintRequested   bool
	Message          string
}

// NewViewer returns a viewer holding a freshly opened, concealed document.
func NewViewer(st State) *Viewer {
	return &Viewer{State: st, Phase: Concealed}
}

// Open 对应打开文档时的 checkExpiration：到期（含等于）则关闭，否则隐藏遮罩并发起打印。
func (v *Viewer) Open(now time.Time) Phase {
	if v.Phase != Concealed {
		return v.Phase
	}
	if !now.UTC().Before(v.State.Expiration) {
		v.Message = ExpiredMessage
		v.Phase = Closed
		return v.Phase
	}
	v.ProtectorsHidden = true
	v.PrintRequested = true
	v.Phase = Revealed
	return v.Phase
}

// AfterPrint 对应打印完成后的脚本：重新显示遮罩并尝试关闭文档，关闭失败被忽略。
func (v *Viewer) AfterPrint(closeErr error) Phase {
	if v.Phase != Revealed {
		return v.Phase
	}
	v.ProtectorsHidden = false
	if closeErr != nil {
		v.Phase = Concealed
		return v.Phase
	}
	v.Phase = Closed
	return v.Phase
}
