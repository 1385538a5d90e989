package rss

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Sink writes rendered feeds into the output directory.
type Sink struct {
	root   string
	logger *zap.Logger
}

// NewSink returns a sink rooted at dir, creating it if needed.
func NewSink(root string, logger *zap.Logger) (*Sink, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", root, err)
	}
	return &Sink{root: root, logger: logger}, nil
}

// Write serializes the feed to <root>/<filename> and returns the full path.
func (s *Sink) Write(filename string, feed Feed) (string, error) {
	payload, err := xml.MarshalIndent(feed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal feed: %w", err)
	}
	body := append([]byte(xml.Header), payload...)
	body = append(body, '\n')

	target := filepath.Join(s.root, filename)
	if err := os.WriteFile(target, body, 0o600); err != nil {
		return "", fmt.Errorf("write feed %s: %w", target, err)
	}
	s.logger.Info("feed written",
		zap.String("path", target),
		zap.Int("items", len(feed.Channel.Items)),
		zap.Int("bytes", len(body)),
	)
	return target, nil
}
