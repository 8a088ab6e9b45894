package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/ansiterm"
	"gopkg.in/yaml.v3"

	"github.com/Adda-Baaj/gink-client/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var headerColor = ansiterm.Styles(ansiterm.Bold)

func newTable(w io.Writer, color string) *ansiterm.TabWriter {
	tw := ansiterm.NewTabWriter(w, 0, 8, 2, ' ', 0)
	switch color {
	case "always":
		tw.SetColorCapable(true)
	case "never":
		tw.SetColorCapable(false)
	}
	return tw
}

func header(tw *ansiterm.TabWriter, indent string, cols ...string) {
	fmt.Fprint(tw, indent)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		headerColor.Fprint(tw, c)
	}
	fmt.Fprintln(tw)
}

// formatTS renders a unix timestamp in local time, or "-" when unset.
func formatTS(ts domain.Timestamp, layout string) string {
	if ts == 0 {
		return "-"
	}
	return time.Unix(ts.Unix(), 0).Local().Format(layout)
}

// WriteTrackers prints the trackers table.
func WriteTrackers(w io.Writer, color string, trackers []domain.Tracker) error {
	tw := newTable(w, color)
	header(tw, "", "IMEI", "Name", "Start", "Expires", "Keep", "Model")
	for _, t := range trackers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.IMEI, t.Name,
			formatTS(t.StartTS, dateLayout), formatTS(t.EndTS, dateLayout),
			t.DataRetention, t.Model)
	}
	return tw.Flush()
}

// WriteLive prints one poll of the live object: its updates, the next URL
// and the refresh delay.
func WriteLive(w io.Writer, color string, now time.Time, snap domain.LiveSnapshot) error {
	stamp := now.Local().Format(dateTimeLayout)
	if len(snap.Updates) == 0 {
		fmt.Fprintf(w, "[%s] No updates\n", stamp)
	} else {
		fmt.Fprintf(w, "[%s] UPDATES:\n", stamp)
		tw := newTable(w, color)
		header(tw, "   ", "IMEI", "Name", "Last Heard", "Last Position")
		for _, u := range snap.Updates {
			fmt.Fprintf(tw, "   %s\t%s\t%s\t%s\n",
				u.IMEI, u.Name,
				formatTS(u.CommTS, dateTimeLayout), formatTS(u.PosTS, dateTimeLayout))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "   Next URL: %s\n", snap.LiveURL)
	_, err := fmt.Fprintf(w, "   Calling again in %d seconds...\n", snap.Refresh)
	return err
}

// WriteYAML dumps v as YAML.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
