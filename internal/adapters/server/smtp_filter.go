package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mikey/phishing-detector/internal/core"
	"github.com/mikey/phishing-detector/internal/ports"
	"github.com/mikey/phishing-detector/internal/utils"
)

const (
	maxHeaderValue   = 900
	messageTimeout   = time.Minute
	parallelChecks   = 4
	defaultMaxLinks  = 10
	defaultSMTPHello = "localhost"
)

// SMTPFilterConfig configures the SMTP link filter
type SMTPFilterConfig struct {
	ListenAddress  string
	Domain         string
	RelayAddress   string
	BlockDangerous bool
	MaxLinks       int
	ScoreHeader    string
	LevelHeader    string
	URLsHeader     string
}

// SMTPFilter is an SMTP content filter that assesses the links found in
// each message, tags the message with the outcome and relays it on
type SMTPFilter struct {
	assessor ports.Assessor
	logger   *zap.Logger
	text     *utils.TextProcessor
	config   SMTPFilterConfig
	server   *smtp.Server
	deliver  func(sender string, recipients []string, data []byte) error
}

// NewSMTPFilter creates a new SMTP link filter
func NewSMTPFilter(assessor ports.Assessor, logger *zap.Logger, cfg SMTPFilterConfig) *SMTPFilter {
	if cfg.MaxLinks <= 0 {
		cfg.MaxLinks = defaultMaxLinks
	}
	if cfg.Domain == "" {
		cfg.Domain = defaultSMTPHello
	}
	f := &SMTPFilter{
		assessor: assessor,
		logger:   logger,
		text:     utils.NewTextProcessor(logger),
		config:   cfg,
	}
	f.deliver = f.sendToRelay
	return f
}

// Start starts the SMTP server in the background
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.config.ListenAddress
	f.server.Domain = f.config.Domain
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024
	f.server.MaxRecipients = 50

	f.logger.Info("SMTP link filter starting",
		zap.String("address", f.config.ListenAddress),
		zap.String("relay", f.config.RelayAddress),
		zap.Bool("block_dangerous", f.config.BlockDangerous))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && err != smtp.ErrServerClosed {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop stops the SMTP server
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// CheckURL assesses url directly
func (f *SMTPFilter) CheckURL(ctx context.Context, url string) (*core.Verdict, error) {
	return f.assessor.Assess(ctx, url)
}

// messageReport summarises the verdicts of every link in a message
type messageReport struct {
	Score   int
	Level   core.RiskLevel
	Flagged []string
	Checked int
}

func levelRank(level core.RiskLevel) int {
	switch level {
	case core.LevelDangerous:
		return 3
	case core.LevelSuspicious:
		return 2
	case core.LevelSafe:
		return 1
	default:
		return 0
	}
}

// checkLinks assesses links concurrently and folds the verdicts together.
// Links whose assessment is abandoned are left out of the report.
func (f *SMTPFilter) checkLinks(ctx context.Context, links []string) messageReport {
	report := messageReport{Level: core.LevelSafe, Flagged: make([]string, 0)}
	verdicts := make([]*core.Verdict, len(links))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelChecks)
	for i, link := range links {
		i, link := i, link
		g.Go(func() error {
			verdict, err := f.CheckURL(gctx, link)
			if err != nil {
				f.logger.Warn("Link assessment abandoned", zap.String("url", link), zap.Error(err))
				return nil
			}
			verdicts[i] = verdict
			return nil
		})
	}
	_ = g.Wait()

	for i, verdict := range verdicts {
		if verdict == nil {
			continue
		}
		report.Checked++
		if verdict.Risk.Score > report.Score {
			report.Score = verdict.Risk.Score
		}
		if levelRank(verdict.Risk.Level) > levelRank(report.Level) {
			report.Level = verdict.Risk.Level
		}
		if verdict.Risk.Level == core.LevelSuspicious || verdict.Risk.Level == core.LevelDangerous {
			report.Flagged = append(report.Flagged, links[i])
		}
	}
	return report
}

// sendToRelay hands the tagged message to the next MTA
func (f *SMTPFilter) sendToRelay(sender string, recipients []string, data []byte) error {
	if f.config.RelayAddress == "" {
		f.logger.Debug("No relay configured, message dropped after tagging")
		return nil
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = defaultSMTPHello
	}

	conn, err := net.DialTimeout("tcp", f.config.RelayAddress, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message is already accepted at this point
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter, recipients: make([]string, 0)}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
	mu         sync.Mutex
}

func (s *smtpSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = ""
	s.recipients = make([]string, 0)
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recipients = append(s.recipients, to)
	return nil
}

// Data assesses the links of the message, tags it and relays it
func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		f.logger.Error("Failed to parse email message", zap.Error(err))
		return err
	}

	text, err := extractTextFromMessage(msg)
	if err != nil {
		f.logger.Warn("Failed to extract text content", zap.Error(err))
	}
	links := extractLinks(text, f.config.MaxLinks)

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()
	report := f.checkLinks(ctx, links)

	s.mu.Lock()
	sender, recipients := s.sender, append([]string(nil), s.recipients...)
	s.mu.Unlock()

	if f.config.BlockDangerous && report.Level == core.LevelDangerous {
		f.logger.Info("Rejecting message with dangerous link",
			zap.String("from", sender),
			zap.Int("score", report.Score),
			zap.Strings("urls", report.Flagged))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Message rejected: dangerous link detected",
		}
	}

	var tagged bytes.Buffer
	fmt.Fprintf(&tagged, "%s: %s\r\n", f.config.ScoreHeader, strconv.Itoa(report.Score))
	fmt.Fprintf(&tagged, "%s: %s\r\n", f.config.LevelHeader, report.Level)
	if len(report.Flagged) > 0 {
		fmt.Fprintf(&tagged, "%s: %s\r\n", f.config.URLsHeader,
			f.text.HeaderValue(strings.Join(report.Flagged, " "), maxHeaderValue))
	}
	tagged.Write(raw)

	if err := f.deliver(sender, recipients, tagged.Bytes()); err != nil {
		f.logger.Error("Failed to relay message", zap.Error(err), zap.String("from", sender))
		return err
	}

	f.logger.Info("Processed message",
		zap.String("from", sender),
		zap.Int("links", len(links)),
		zap.Int("checked", report.Checked),
		zap.Int("score", report.Score),
		zap.String("level", string(report.Level)))
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
