package lsf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"lsfassist-backend/lib/browser"
	"lsfassist-backend/lib/timezone"

	"github.com/mazen160/go-random"
)

// artifactSink persists a screenshot and the raw page markup on login
// failure points, to make broken SSO pages diagnosable after the fact.
// Sink failures are logged and swallowed, never escalated.
type artifactSink struct {
	dir string
}

func (s artifactSink) capture(ctx context.Context, session browser.Session, prefix string) {
	if s.dir == "" || session == nil {
		return
	}

	err := os.MkdirAll(s.dir, 0777)
	if err != nil {
		slog.WarnContext(ctx, "failed to create debug artifact dir", "dir", s.dir, "err", err)
		return
	}

	// random suffix so two failures within the same second don't
	// overwrite each other
	suffix, err := random.String(4)
	if err != nil {
		suffix = "x"
	}
	base := filepath.Join(s.dir, fmt.Sprintf(
		"%s_%s_%s",
		prefix,
		timezone.Now().Format("20060102_150405"),
		suffix,
	))

	screenshot, err := session.Screenshot()
	if err != nil {
		slog.WarnContext(ctx, "failed to capture debug screenshot", "prefix", prefix, "err", err)
	} else {
		err = os.WriteFile(base+".png", screenshot, 0600)
		if err != nil {
			slog.WarnContext(ctx, "failed to write debug screenshot", "path", base+".png", "err", err)
		}
	}

	source, err := session.PageSource()
	if err != nil {
		slog.WarnContext(ctx, "failed to capture debug page source", "prefix", prefix, "err", err)
		return
	}
	err = os.WriteFile(base+".html", []byte(source), 0600)
	if err != nil {
		slog.WarnContext(ctx, "failed to write debug page source", "path", base+".html", "err", err)
		return
	}

	slog.InfoContext(ctx, "saved debug artifacts", "base", base)
}
