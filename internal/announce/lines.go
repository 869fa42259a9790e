// Package announce implements the two-stage bell announcement: the
// chime, then the spoken message naming period, time, teacher, subject,
// and classroom.
package announce

import (
	"fmt"
	"strings"

	"github.com/hammamikhairi/schoolbell/internal/domain"
)

// ComposeAnnouncement builds the spoken text for one schedule entry.
// The template is fixed; every field appears, none may be silently
// omitted. Keep lines short and direct; the TTS engine handles
// inflection.
func ComposeAnnouncement(schoolName string, e domain.ScheduleEntry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Welcome to %s. ", schoolName)
	fmt.Fprintf(&b, "Attention. Period %d. At %s. ", e.Period, e.StartTime)
	fmt.Fprintf(&b, "%s Teacher %s, instructor of %s, please proceed to classroom %s. ",
		e.Honorific, e.Teacher, e.Subject, e.ClassName)
	b.WriteString("Have a good lesson.")
	return b.String()
}

// LineTestHeader is printed (not spoken) before a manual test trigger.
func LineTestHeader(e domain.ScheduleEntry) string {
	return fmt.Sprintf("Testing bell for period %d (%s, %s)...", e.Period, e.StartTime, e.Subject)
}
