package engine

import (
	"fmt"
	"io"

	"github.com/drblury/sigtap/internal/engine/jsoncodec"
)

// WriteSnapshotJSON writes the snapshot as indented JSON, one document per
// call.
func WriteSnapshotJSON(w io.Writer, snap AggregateSnapshot) error {
	data, err := jsoncodec.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// WriteSnapshotText renders the snapshot for logs and consoles.
func WriteSnapshotText(w io.Writer, snap AggregateSnapshot) error {
	if _, err := fmt.Fprintf(w, "snapshot taken at %s\n", snap.TakenAt.Format("2006-01-02 15:04:05.000 MST")); err != nil {
		return err
	}
	if snap.Total == 0 {
		_, err := fmt.Fprintln(w, "no signals observed")
		return err
	}

	if _, err := fmt.Fprintf(w, "%d signals across %d kinds\n", snap.Total, snap.DistinctKinds); err != nil {
		return err
	}
	if snap.TopKind != "" {
		if _, err := fmt.Fprintf(w, "top kind: %s (%d)\n", snap.TopKind, snap.TopKindCount); err != nil {
			return err
		}
	}
	if snap.RatePerSecond > 0 {
		if _, err := fmt.Fprintf(w, "rate: %.2f signals/s\n", snap.RatePerSecond); err != nil {
			return err
		}
	}

	for _, kc := range snap.Counts {
		if _, err := fmt.Fprintf(w, "  %-32s %d\n", kc.Kind, kc.Count); err != nil {
			return err
		}
	}

	if len(snap.Recent) > 0 {
		if _, err := fmt.Fprintf(w, "recent %d:\n", len(snap.Recent)); err != nil {
			return err
		}
		for _, rec := range snap.Recent {
			line := fmt.Sprintf("  %s %s via %s", rec.SeenAt.Format("15:04:05.000"), rec.Kind, rec.Path)
			if rec.Summary != "" {
				line += " " + rec.Summary
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
