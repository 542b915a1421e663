// Package sqlstore implements store.Store on database/sql. Driver packages
// supply the connection, the schema, and a Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amelia751/cloudly/internal/model"
	"github.com/amelia751/cloudly/internal/store"
)

// Dialect captures the differences between SQL drivers.
type Dialect interface {
	Name() string
	// NumberedPlaceholders reports whether the driver expects $N instead of ?.
	NumberedPlaceholders() bool
	IsUniqueViolation(err error) bool
}

// New wraps db in a store.Store.
func New(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, d: d}
}

type SQLStore struct {
	db *sql.DB
	d  Dialect
}

func (s *SQLStore) Recipients() store.Recipients { return &recipients{s} }
func (s *SQLStore) Messages() store.Messages     { return &messages{s} }
func (s *SQLStore) Events() store.Events         { return &events{s} }
func (s *SQLStore) Voices() store.Voices         { return &voices{s} }
func (s *SQLStore) Assistants() store.Assistants { return &assistants{s} }

// DB exposes the underlying connection.
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Close() error { return s.db.Close() }

// HealthPing implements health.Pinger.
func (s *SQLStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// q rewrites ? placeholders for drivers that number them.
func (s *SQLStore) q(query string) string {
	if !s.d.NumberedPlaceholders() {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.New().String()
}

func now() time.Time { return time.Now().UTC() }

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

func notFound(err error, what, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return model.NotFoundf("%s %s not found", what, id)
	}
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

// --- Recipients ---

type recipients struct{ *SQLStore }

const recipientCols = `id, user_id, recipient_name, recipient_email, recipient_relationship, recipient_birthday, sender_name, sender_email, connect, creation_time`

func scanRecipient(row rowScanner) (*model.Recipient, error) {
	var r model.Recipient
	var bday sql.NullTime
	if err := row.Scan(&r.ID, &r.UserID, &r.RecipientName, &r.RecipientEmail, &r.RecipientRelationship,
		&bday, &r.SenderName, &r.SenderEmail, &r.Connect, &r.CreationTime); err != nil {
		return nil, err
	}
	r.RecipientBirthday = timePtr(bday)
	r.CreationTime = r.CreationTime.UTC()
	return &r, nil
}

func (s *recipients) Create(ctx context.Context, in *model.Recipient) (*model.Recipient, error) {
	out := *in
	out.ID = newID(in.ID)
	out.CreationTime = now()
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO directory (`+recipientCols+`)
        VALUES (?,?,?,?,?,?,?,?,?,?)
    `), out.ID, out.UserID, out.RecipientName, out.RecipientEmail, out.RecipientRelationship,
		nullTime(out.RecipientBirthday), out.SenderName, out.SenderEmail, out.Connect, out.CreationTime)
	if err != nil {
		if s.d.IsUniqueViolation(err) {
			return nil, model.Conflictf("recipient %s already exists", out.ID)
		}
		return nil, err
	}
	return &out, nil
}

func (s *recipients) Get(ctx context.Context, id string) (*model.Recipient, error) {
	row := s.db.QueryRowContext(ctx, s.q(`SELECT `+recipientCols+` FROM directory WHERE id=?`), id)
	r, err := scanRecipient(row)
	if err != nil {
		return nil, notFound(err, "recipient", id)
	}
	return r, nil
}

func (s *recipients) list(ctx context.Context, where string, arg string) ([]*model.Recipient, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+recipientCols+` FROM directory WHERE `+where+`=? ORDER BY seq`), arg)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Recipient
	for rows.Next() {
		r, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, r)
	}
	return res, rows.Err()
}

func (s *recipients) ListBySender(ctx context.Context, userID string) ([]*model.Recipient, error) {
	return s.list(ctx, "user_id", userID)
}

func (s *recipients) ListByRecipientEmail(ctx context.Context, email string) ([]*model.Recipient, error) {
	return s.list(ctx, "recipient_email", email)
}

func (s *recipients) Update(ctx context.Context, id string, u model.RecipientUpdate) (*model.Recipient, error) {
	cur, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.RecipientName != nil {
		cur.RecipientName = *u.RecipientName
	}
	if u.RecipientEmail != nil {
		cur.RecipientEmail = *u.RecipientEmail
	}
	if u.RecipientRelationship != nil {
		cur.RecipientRelationship = *u.RecipientRelationship
	}
	if u.RecipientBirthday != nil {
		cur.RecipientBirthday = u.RecipientBirthday
	}
	if u.Connect != nil {
		cur.Connect = *u.Connect
	}
	_, err = s.db.ExecContext(ctx, s.q(`
        UPDATE directory SET recipient_name=?, recipient_email=?, recipient_relationship=?,
            recipient_birthday=?, connect=?
        WHERE id=?
    `), cur.RecipientName, cur.RecipientEmail, cur.RecipientRelationship,
		nullTime(cur.RecipientBirthday), cur.Connect, id)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

func (s *recipients) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM messages WHERE directory_id=?`,
		`DELETE FROM events WHERE directory_id=?`,
		`DELETE FROM assistants WHERE directory_id=?`,
	} {
		if _, err := tx.ExecContext(ctx, s.q(stmt), id); err != nil {
			return err
		}
	}
	res, err := tx.ExecContext(ctx, s.q(`DELETE FROM directory WHERE id=?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NotFoundf("recipient %s not found", id)
	}
	return tx.Commit()
}

// --- Messages ---

type messages struct{ *SQLStore }

const messageCols = `id, directory_id, message, context, note, creation_time`

func scanMessage(row rowScanner) (*model.Message, error) {
	var m model.Message
	if err := row.Scan(&m.ID, &m.DirectoryID, &m.Message, &m.Context, &m.Note, &m.CreationTime); err != nil {
		return nil, err
	}
	m.CreationTime = m.CreationTime.UTC()
	return &m, nil
}

func (s *messages) Create(ctx context.Context, in *model.Message) (*model.Message, error) {
	out := *in
	out.ID = newID(in.ID)
	out.CreationTime = now()
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO messages (`+messageCols+`) VALUES (?,?,?,?,?,?)
    `), out.ID, out.DirectoryID, out.Message, out.Context, out.Note, out.CreationTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *messages) Get(ctx context.Context, id string) (*model.Message, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx, s.q(`SELECT `+messageCols+` FROM messages WHERE id=?`), id))
	if err != nil {
		return nil, notFound(err, "message", id)
	}
	return m, nil
}

func (s *messages) ListByRecipient(ctx context.Context, directoryID string) ([]*model.Message, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+messageCols+` FROM messages WHERE directory_id=? ORDER BY seq`), directoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (s *messages) Update(ctx context.Context, m *model.Message) (*model.Message, error) {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE messages SET message=?, context=?, note=? WHERE id=?`),
		m.Message, m.Context, m.Note, m.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.NotFoundf("message %s not found", m.ID)
	}
	return s.Get(ctx, m.ID)
}

func (s *messages) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM messages WHERE id=?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NotFoundf("message %s not found", id)
	}
	return nil
}

// --- Events ---

type events struct{ *SQLStore }

const eventCols = `id, directory_id, event, event_date, message, creation_time`

func scanEvent(row rowScanner) (*model.Event, error) {
	var e model.Event
	var d sql.NullTime
	if err := row.Scan(&e.ID, &e.DirectoryID, &e.Event, &d, &e.Message, &e.CreationTime); err != nil {
		return nil, err
	}
	e.Date = timePtr(d)
	e.CreationTime = e.CreationTime.UTC()
	return &e, nil
}

func (s *events) Create(ctx context.Context, in *model.Event) (*model.Event, error) {
	out := *in
	out.ID = newID(in.ID)
	out.CreationTime = now()
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO events (`+eventCols+`) VALUES (?,?,?,?,?,?)
    `), out.ID, out.DirectoryID, out.Event, nullTime(out.Date), out.Message, out.CreationTime)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *events) Get(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, s.q(`SELECT `+eventCols+` FROM events WHERE id=?`), id))
	if err != nil {
		return nil, notFound(err, "event", id)
	}
	return e, nil
}

func (s *events) ListByRecipient(ctx context.Context, directoryID string) ([]*model.Event, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT `+eventCols+` FROM events WHERE directory_id=? ORDER BY seq`), directoryID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, rows.Err()
}

func (s *events) Update(ctx context.Context, e *model.Event) (*model.Event, error) {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE events SET event=?, event_date=?, message=? WHERE id=?`),
		e.Event, nullTime(e.Date), e.Message, e.ID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.NotFoundf("event %s not found", e.ID)
	}
	return s.Get(ctx, e.ID)
}

func (s *events) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM events WHERE id=?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NotFoundf("event %s not found", id)
	}
	return nil
}

// --- Voices ---

type voices struct{ *SQLStore }

const voiceCols = `id, user_id, voice_id, name, meta, creation_time`

func scanVoice(row rowScanner) (*model.Voice, error) {
	var v model.Voice
	if err := row.Scan(&v.ID, &v.UserID, &v.VoiceID, &v.Name, &v.Meta, &v.CreationTime); err != nil {
		return nil, err
	}
	v.CreationTime = v.CreationTime.UTC()
	return &v, nil
}

func (s *voices) Create(ctx context.Context, in *model.Voice) (*model.Voice, error) {
	out := *in
	out.ID = newID(in.ID)
	out.CreationTime = now()
	_, err := s.db.ExecContext(ctx, s.q(`
        INSERT INTO voices (`+voiceCols+`) VALUES (?,?,?,?,?,?)
    `), out.ID, out.UserID, out.VoiceID, out.Name, out.Meta, out.CreationTime)
	if err != nil {
		if s.d.IsUniqueViolation(err) {
			return nil, model.Conflictf("user %s already has a voice", out.UserID)
		}
		return nil, err
	}
	return &out, nil
}

func (s *voices) GetByUser(ctx context.Context, userID string) (*model.Voice, error) {
	v, err := scanVoice(s.db.QueryRowContext(ctx, s.q(`SELECT `+voiceCols+` FROM voices WHERE user_id=?`), userID))
	if err != nil {
		return nil, notFound(err, "voice for user", userID)
	}
	return v, nil
}

func (s *voices) GetByVoiceID(ctx context.Context, voiceID string) (*model.Voice, error) {
	v, err := scanVoice(s.db.QueryRowContext(ctx, s.q(`SELECT `+voiceCols+` FROM voices WHERE voice_id=?`), voiceID))
	if err != nil {
		return nil, notFound(err, "voice", voiceID)
	}
	return v, nil
}

func (s *voices) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM voices WHERE id=?`), id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return model.NotFoundf("voice %s not found", id)
	}
	return nil
}

// --- Assistants ---

type assistants struct{ *SQLStore }

const assistantCols = `id, directory_id, assistant_id, org_id, assistant_name, content, first_message, publish, creation_time`

func scanAssistant(row rowScanner) (*model.Assistant, error) {
	var a model.Assistant
	if err := row.Scan(&a.ID, &a.DirectoryID, &a.AssistantID, &a.OrgID, &a.AssistantName,
		&a.Content, &a.FirstMessage, &a.Publish, &a.CreationTime); err != nil {
		return nil, err
	}
	a.CreationTime = a.CreationTime.UTC()
	return &a, nil
}

func (s *assistants) GetByRecipient(ctx context.Context, directoryID string) (*model.Assistant, error) {
	a, err := scanAssistant(s.db.QueryRowContext(ctx, s.q(`SELECT `+assistantCols+` FROM assistants WHERE directory_id=?`), directoryID))
	if err != nil {
		return nil, notFound(err, "assistant for recipient", directoryID)
	}
	return a, nil
}

func (s *assistants) Upsert(ctx context.Context, in *model.Assistant) (*model.Assistant, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
        INSERT INTO assistants (`+assistantCols+`)
        VALUES (?,?,?,?,?,?,?,?,?)
        ON CONFLICT (directory_id) DO UPDATE SET
            assistant_id=excluded.assistant_id,
            org_id=excluded.org_id,
            assistant_name=excluded.assistant_name,
            content=excluded.content,
            first_message=excluded.first_message
        RETURNING `+assistantCols), newID(in.ID), in.DirectoryID, in.AssistantID, in.OrgID, in.AssistantName,
		in.Content, in.FirstMessage, in.Publish, now())
	return scanAssistant(row)
}

func (s *assistants) SetPublish(ctx context.Context, directoryID string, publish bool) (*model.Assistant, error) {
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE assistants SET publish=? WHERE directory_id=?`), publish, directoryID)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, model.NotFoundf("assistant for recipient %s not found", directoryID)
	}
	return s.GetByRecipient(ctx, directoryID)
}

var _ store.Store = (*SQLStore)(nil)
