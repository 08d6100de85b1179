package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/stash/internal/presentation/tui"
	"github.com/aretw0/stash/pkg/handler"
	jsoniter "github.com/json-iterator/go"
)

// Printer writes command results either as rendered markdown or as JSON.
type Printer struct {
	Out  io.Writer
	JSON bool
}

func (p Printer) print(v any, render func(*tui.Renderer) (string, error)) error {
	if p.JSON {
		data, err := jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(p.Out, string(data))
		return err
	}
	out, err := render(tui.NewRenderer(p.Out))
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(p.Out, out)
	return err
}

func (rt *Runtime) admin() (*handler.Handler, error) {
	h, ok := rt.Manager.Sessions()
	if !ok {
		return nil, fmt.Errorf("backend %q does not support inspection", rt.Manager.Config().Backend)
	}
	return h, nil
}

// ListSessions prints up to limit stored sessions.
func ListSessions(ctx context.Context, rt *Runtime, p Printer, limit int) error {
	h, err := rt.admin()
	if err != nil {
		return err
	}
	sessions, err := h.List(ctx, limit)
	if err != nil {
		return fmt.Errorf("error listing sessions: %w", err)
	}
	if sessions == nil {
		sessions = []handler.Session{}
	}
	for i := range sessions {
		sessions[i].Attributes = rt.Manager.Redact(sessions[i].Attributes)
	}
	return p.print(sessions, func(r *tui.Renderer) (string, error) {
		return r.Sessions(rt.Manager.Name(), sessions)
	})
}

// InspectSession prints the attributes of one session.
func InspectSession(ctx context.Context, rt *Runtime, p Printer, id string) error {
	h, err := rt.admin()
	if err != nil {
		return err
	}
	sess, err := h.Inspect(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading session '%s': %w", id, err)
	}
	sess.Attributes = rt.Manager.Redact(sess.Attributes)
	return p.print(sess, func(r *tui.Renderer) (string, error) {
		return r.Session(sess)
	})
}

// RemoveSessions destroys every id, reporting each one. It returns an error
// if any removal failed.
func RemoveSessions(ctx context.Context, rt *Runtime, out io.Writer, ids []string) error {
	failed := 0
	for _, id := range ids {
		if err := rt.Manager.Handler().Destroy(ctx, id); err != nil {
			fmt.Fprintf(out, "Error removing '%s': %v\n", id, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "Removed session '%s'\n", id)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions could not be removed", failed, len(ids))
	}
	return nil
}

// CollectGarbage runs one sweep and prints its report.
func CollectGarbage(ctx context.Context, rt *Runtime, out io.Writer) error {
	report, err := rt.Manager.CollectGarbage(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Scanned %d, deleted %d (%d malformed)\n", report.Scanned, report.Deleted, report.Malformed)
	return nil
}
