// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"strconv"

	"github.com/dalemusser/stratadrive/internal/app/store/audit"
	"github.com/dalemusser/stratadrive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds audit logging configuration.
type Config struct {
	// File controls logging for file lifecycle events (upload, rename, trash, delete, purge).
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	File string
	// Directory controls logging for identity-provider driven user/org/membership changes.
	// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off" (disabled)
	Directory string
}

// Logger provides convenience methods for logging audit events.
// It logs to both MongoDB (via audit.Store) and structured logs (via zap).
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{
		store:  store,
		zapLog: zapLog,
		config: config,
	}
}

// logToZap logs the event to zap with consistent structure.
func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}

	if event.ScopeID != "" {
		fields = append(fields, zap.String("scope_id", event.ScopeID))
	}
	if event.ActorPrincipalID != "" {
		fields = append(fields, zap.String("actor", event.ActorPrincipalID))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.FileID != nil {
		fields = append(fields, zap.String("file_id", event.FileID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}

	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// Log records an audit event based on configuration.
// If the logger is nil, this is a no-op (allows tests to use nil audit logger).
// Logging destination is controlled by config: "all", "db", "log", or "off".
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}

	var setting string
	switch event.Category {
	case audit.CategoryFile:
		setting = l.config.File
	case audit.CategoryDirectory:
		setting = l.config.Directory
	default:
		setting = "all"
	}

	if setting == "off" {
		return
	}
	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

// --- File Events ---

func fileEvent(eventType, actor string, f *models.File) audit.Event {
	id := f.ID
	return audit.Event{
		Category:         audit.CategoryFile,
		EventType:        eventType,
		ScopeID:          f.ScopeID,
		ActorPrincipalID: actor,
		FileID:           &id,
		Success:          true,
		Details:          map[string]string{"name": f.Name},
	}
}

// FileUploaded logs a committed upload.
func (l *Logger) FileUploaded(ctx context.Context, actor string, f *models.File) {
	e := fileEvent(audit.EventFileUploaded, actor, f)
	e.Details["content_type"] = f.ContentType
	l.Log(ctx, e)
}

// FileRenamed logs a rename.
func (l *Logger) FileRenamed(ctx context.Context, actor string, f *models.File, newName string) {
	e := fileEvent(audit.EventFileRenamed, actor, f)
	e.Details["new_name"] = newName
	l.Log(ctx, e)
}

// FileTrashed logs a move to trash.
func (l *Logger) FileTrashed(ctx context.Context, actor string, f *models.File) {
	l.Log(ctx, fileEvent(audit.EventFileTrashed, actor, f))
}

// FileRestored logs a restore from trash.
func (l *Logger) FileRestored(ctx context.Context, actor string, f *models.File) {
	l.Log(ctx, fileEvent(audit.EventFileRestored, actor, f))
}

// FileDeleted logs a delete-forever by a user.
func (l *Logger) FileDeleted(ctx context.Context, actor string, f *models.File, starsRemoved int64) {
	e := fileEvent(audit.EventFileDeleted, actor, f)
	e.Details["stars_removed"] = strconv.FormatInt(starsRemoved, 10)
	l.Log(ctx, e)
}

// FileDuplicated logs a copy of src into dst's scope.
func (l *Logger) FileDuplicated(ctx context.Context, actor string, src, dst *models.File) {
	e := fileEvent(audit.EventFileDuplicated, actor, dst)
	e.Details["source_file_id"] = src.ID.Hex()
	e.Details["source_scope_id"] = src.ScopeID
	l.Log(ctx, e)
}

// FilePurged logs one sweeper deletion. err is nil on success.
func (l *Logger) FilePurged(ctx context.Context, f *models.File, err error) {
	e := fileEvent(audit.EventFilePurged, "", f)
	if err != nil {
		e.Success = false
		e.FailureReason = err.Error()
	}
	l.Log(ctx, e)
}

// --- Directory Events ---

func userEvent(eventType string, u *models.User) audit.Event {
	id := u.ID
	return audit.Event{
		Category:         audit.CategoryDirectory,
		EventType:        eventType,
		ActorPrincipalID: u.PrincipalID,
		UserID:           &id,
		Success:          true,
	}
}

// UserCreated logs the first sign-in of a principal.
func (l *Logger) UserCreated(ctx context.Context, u *models.User) {
	l.Log(ctx, userEvent(audit.EventUserCreated, u))
}

// UserUpdated logs a profile sync.
func (l *Logger) UserUpdated(ctx context.Context, u *models.User) {
	l.Log(ctx, userEvent(audit.EventUserUpdated, u))
}

// OrgCreated logs an organization creation.
func (l *Logger) OrgCreated(ctx context.Context, org *models.Organization) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryDirectory,
		EventType: audit.EventOrgCreated,
		ScopeID:   org.ExternalOrgID,
		Success:   true,
		Details:   map[string]string{"name": org.DisplayName},
	})
}

// OrgUpdated logs an organization profile change.
func (l *Logger) OrgUpdated(ctx context.Context, orgID, name string) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryDirectory,
		EventType: audit.EventOrgUpdated,
		ScopeID:   orgID,
		Success:   true,
		Details:   map[string]string{"name": name},
	})
}

// MembershipAdded logs a user joining an organization.
func (l *Logger) MembershipAdded(ctx context.Context, u *models.User, orgID, role string) {
	e := userEvent(audit.EventMembershipAdded, u)
	e.ScopeID = orgID
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// MembershipRoleChanged logs a role change inside an organization.
func (l *Logger) MembershipRoleChanged(ctx context.Context, u *models.User, orgID, role string) {
	e := userEvent(audit.EventMembershipRoleChanged, u)
	e.ScopeID = orgID
	e.Details = map[string]string{"role": role}
	l.Log(ctx, e)
}

// MembershipRemoved logs a user leaving an organization.
func (l *Logger) MembershipRemoved(ctx context.Context, u *models.User, orgID string) {
	e := userEvent(audit.EventMembershipRemoved, u)
	e.ScopeID = orgID
	l.Log(ctx, e)
}

// MembershipRepaired logs a read-repair of an organization's member list.
func (l *Logger) MembershipRepaired(ctx context.Context, orgID string, before, after []primitive.ObjectID) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryDirectory,
		EventType: audit.EventMembershipRepaired,
		ScopeID:   orgID,
		Success:   true,
		Details: map[string]string{
			"before": strconv.Itoa(len(before)),
			"after":  strconv.Itoa(len(after)),
		},
	})
}
