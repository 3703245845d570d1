package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/config"
	"github.com/linesmerrill/civic-report-api/databases"
	"github.com/linesmerrill/civic-report-api/models"
	templates "github.com/linesmerrill/civic-report-api/templates/html"
)

// DigestWindow is how far back the daily digest looks for new reports
const DigestWindow = 24 * time.Hour

// Mailer sends a single HTML email with a plain-text alternative
type Mailer interface {
	Send(ctx context.Context, toEmail, subject, htmlContent, plainText string) error
}

// SendgridMailer delivers mail through SendGrid
type SendgridMailer struct {
	FromName  string
	FromEmail string
	client    *sendgrid.Client
}

// NewSendgridMailer returns a mailer for the configured SendGrid account
func NewSendgridMailer(conf *config.Config) (*SendgridMailer, error) {
	if err := conf.Require("SENDGRID_API_KEY", "DIGEST_FROM_EMAIL"); err != nil {
		return nil, err
	}
	return &SendgridMailer{
		FromName:  conf.SiteName,
		FromEmail: conf.DigestFromEmail,
		client:    sendgrid.NewSendClient(conf.SendgridAPIKey),
	}, nil
}

// Send implements Mailer
func (m *SendgridMailer) Send(ctx context.Context, toEmail, subject, htmlContent, plainText string) error {
	from := mail.NewEmail(m.FromName, m.FromEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	response, err := m.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body, "to", toEmail)
		return fmt.Errorf("sendgrid error: status %d", response.StatusCode)
	}
	return nil
}

// Scheduler runs periodic background jobs
type Scheduler struct {
	cron   *cron.Cron
	RDB    databases.ReportDatabase
	Mailer Mailer
	Config *config.Config
	now    func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(rdb databases.ReportDatabase, mailer Mailer, conf *config.Config) *Scheduler {
	return &Scheduler{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		RDB:    rdb,
		Mailer: mailer,
		Config: conf,
		now:    time.Now,
	}
}

// Start registers the digest job and starts the cron loop
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.Config.DigestSchedule, s.runDigest)
	if err != nil {
		return fmt.Errorf("register digest job %q: %w", s.Config.DigestSchedule, err)
	}
	s.cron.Start()
	zap.S().Infow("report digest scheduler started", "schedule", s.Config.DigestSchedule)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("report digest scheduler stopped")
}

func (s *Scheduler) runDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := s.SendDigest(ctx); err != nil {
		zap.S().Errorw("failed to send report digest", "error", err)
	}
}

// SendDigest counts reports created within DigestWindow and reports still open,
// then mails the summary to the administrator.
func (s *Scheduler) SendDigest(ctx context.Context) error {
	if err := s.Config.Require("ADMIN_EMAIL"); err != nil {
		return err
	}
	since := s.now().UTC().Add(-DigestWindow)

	newReports, err := s.RDB.CountDocuments(ctx, bson.M{"createdAt": bson.M{"$gte": since}})
	if err != nil {
		return fmt.Errorf("count new reports: %w", err)
	}
	open, err := s.RDB.CountDocuments(ctx, bson.M{"status": models.StatusOpen})
	if err != nil {
		return fmt.Errorf("count open reports: %w", err)
	}

	d := templates.Digest{
		SiteName:   s.Config.SiteName,
		Since:      since,
		NewReports: newReports,
		OpenTotal:  open,
	}
	if s.Config.BaseURL != "" {
		d.AdminURL = s.Config.BaseURL + "/admin"
	}
	subject := templates.DigestSubject(d)
	if err := s.Mailer.Send(ctx, s.Config.AdminEmail, subject, templates.RenderDigestEmail(d), templates.RenderDigestText(d)); err != nil {
		return fmt.Errorf("send digest: %w", err)
	}
	zap.S().Infow("report digest sent", "to", s.Config.AdminEmail, "new", newReports, "open", open)
	return nil
}
