package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"

	"github.com/lox/gridcast/internal/metrics"
	"github.com/lox/gridcast/internal/models"
)

const ftpTimeout = 30 * time.Second

// OpenSource reads the whole source table from a local path or an
// ftp://[user[:pass]@]host[:port]/path URL.
func OpenSource(ctx context.Context, location string) ([]byte, error) {
	if strings.HasPrefix(strings.ToLower(location), "ftp://") {
		return fetchFTP(ctx, location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func fetchFTP(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse ftp url: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "21")
	}

	conn, err := ftp.Dial(host, ftp.DialWithTimeout(ftpTimeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("ftp dial: %w", err)
	}
	defer conn.Quit()

	user, pass := "anonymous", "anonymous"
	if u.User != nil {
		user = u.User.Username()
		if p, ok := u.User.Password(); ok {
			pass = p
		}
	}
	if err := conn.Login(user, pass); err != nil {
		return nil, fmt.Errorf("ftp login: %w", err)
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return nil, fmt.Errorf("ftp retr: %w", err)
	}
	defer resp.Close()

	body, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// LoadSource opens location and parses it with Load, choosing the table
// format from its extension.
func LoadSource(ctx context.Context, location string, cfg LoaderConfig) ([]models.Reading, error) {
	data, err := OpenSource(ctx, location)
	if err != nil {
		return nil, err
	}
	readings, err := Load(bytes.NewReader(data), FormatFromName(location), cfg)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", redact(location), err)
	}
	metrics.StationDaysLoaded.Add(float64(len(readings)))
	log.Printf("ingest: loaded %d station-days from %s", len(readings), redact(location))
	return readings, nil
}

// redact hides ftp credentials in log lines.
func redact(location string) string {
	u, err := url.Parse(location)
	if err != nil || u.User == nil {
		return location
	}
	return u.Redacted()
}
