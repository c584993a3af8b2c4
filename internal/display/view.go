package display

import (
	"time"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"
	"github.com/diamondburned/gotk4/pkg/pango"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/shotwatch/internal/model"
)

// CaptureList is the popover content: the most recent captures, newest first.
type CaptureList struct {
	root  *gtk.Box
	list  *gtk.Box
	empty *gtk.Label
	count *gtk.Label
	rows  []*gtk.Box
}

// NewCaptureList builds the list widgets. Main thread only.
func NewCaptureList() *CaptureList {
	l := &CaptureList{}

	l.root = gtk.NewBox(gtk.OrientationVertical, 6)
	l.root.AddCSSClass("popover-content")

	title := gtk.NewLabel("Recent screenshots")
	title.AddCSSClass("popover-title")
	title.SetXAlign(0)
	l.root.Append(title)

	l.list = gtk.NewBox(gtk.OrientationVertical, 2)
	l.list.AddCSSClass("capture-list")

	scroller := gtk.NewScrolledWindow()
	scroller.SetPolicy(gtk.PolicyNever, gtk.PolicyAutomatic)
	scroller.SetVExpand(true)
	scroller.SetChild(l.list)
	l.root.Append(scroller)

	l.empty = gtk.NewLabel("No screenshots yet")
	l.empty.AddCSSClass("capture-empty")
	l.list.Append(l.empty)

	l.count = gtk.NewLabel("")
	l.count.AddCSSClass("popover-footer")
	l.count.SetXAlign(0)
	l.root.Append(l.count)

	return l
}

// Widget returns the root widget.
func (l *CaptureList) Widget() gtk.Widgetter {
	return l.root
}

// Update replaces the rows. Main thread only.
func (l *CaptureList) Update(captures []model.Capture, total int) {
	for _, row := range l.rows {
		l.list.Remove(row)
	}
	l.rows = l.rows[:0]

	now := time.Now()
	for _, c := range captures {
		row := newCaptureRow(c, now)
		l.list.Append(row)
		l.rows = append(l.rows, row)
	}

	l.empty.SetVisible(len(captures) == 0)
	l.count.SetText(footerText(total))
}

func newCaptureRow(c model.Capture, now time.Time) *gtk.Box {
	name, when := rowText(c, now)

	row := gtk.NewBox(gtk.OrientationHorizontal, 8)
	row.AddCSSClass("capture-row")
	row.SetTooltipText(c.Path)

	nameLbl := gtk.NewLabel(name)
	nameLbl.AddCSSClass("capture-name")
	nameLbl.SetXAlign(0)
	nameLbl.SetHExpand(true)
	nameLbl.SetEllipsize(pango.EllipsizeMiddle)
	row.Append(nameLbl)

	timeLbl := gtk.NewLabel(when)
	timeLbl.AddCSSClass("capture-time")
	row.Append(timeLbl)

	return row
}

// rowText returns the label texts of a capture row.
func rowText(c model.Capture, now time.Time) (name, when string) {
	name = c.Filename
	if name == "" {
		name = c.Path
	}
	if c.DetectedAt <= 0 {
		return name, ""
	}
	return name, humanize.RelTime(c.DetectedAtTime(), now, "ago", "from now")
}

func footerText(total int) string {
	switch total {
	case 0:
		return ""
	case 1:
		return "1 screenshot this session"
	default:
		return humanize.Comma(int64(total)) + " screenshots this session"
	}
}
