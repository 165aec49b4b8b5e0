package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"nest-server/core"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

type sqlStore struct {
	db *sqlx.DB
}

type (
	pictureRow struct {
		ID          int64          `db:"id"`
		AssetPath   sql.NullString `db:"asset_path"`
		Title       string         `db:"title"`
		Description string         `db:"description"`
		UploadedAt  time.Time      `db:"uploaded_at"`
		Owner       string         `db:"owner"`
	}

	noteRow struct {
		ID         int64     `db:"id"`
		Title      string    `db:"title"`
		Content    string    `db:"content"`
		UploadedAt time.Time `db:"uploaded_at"`
		Owner      string    `db:"owner"`
	}

	commentRow struct {
		ID          int64         `db:"id"`
		PictureID   sql.NullInt64 `db:"picture_id"`
		NoteID      sql.NullInt64 `db:"note_id"`
		Description string        `db:"description"`
		CommentedAt time.Time     `db:"commented_at"`
		Owner       string        `db:"owner"`
	}
)

// NewStore opens the database and creates the tables. driverName is either
// DriverSQLite or DriverPostgres.
func NewStore(driverName, dataSourceName string) (*sqlStore, error) {
	var schema []string
	switch driverName {
	case DriverSQLite:
		schema = sqliteSchema
	case DriverPostgres:
		schema = postgresSchema
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driverName)
	}

	db, err := sqlx.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driverName, err)
	}
	if driverName == DriverSQLite {
		// A single writer avoids "database is locked" under concurrent requests.
		db.SetMaxOpenConns(1)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	return &sqlStore{db: db}, nil
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}

func (r pictureRow) picture() *core.Picture {
	return &core.Picture{
		ID:          r.ID,
		AssetPath:   r.AssetPath.String,
		Title:       r.Title,
		Description: r.Description,
		UploadedAt:  r.UploadedAt,
		Owner:       core.Owner(r.Owner),
	}
}

func (r noteRow) note() *core.Note {
	return &core.Note{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		UploadedAt: r.UploadedAt,
		Owner:      core.Owner(r.Owner),
	}
}

func (r commentRow) comment() (*core.Comment, error) {
	var pictureID, noteID *int64
	if r.PictureID.Valid {
		pictureID = &r.PictureID.Int64
	}
	if r.NoteID.Valid {
		noteID = &r.NoteID.Int64
	}
	parent, err := core.ParentFromColumns(pictureID, noteID)
	if err != nil {
		return nil, fmt.Errorf("comment %d: %w", r.ID, err)
	}
	return &core.Comment{
		ID:          r.ID,
		Parent:      parent,
		Description: r.Description,
		CommentedAt: r.CommentedAt,
		Owner:       core.Owner(r.Owner),
	}, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func notFoundIfNoRows(err error, what string, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return err
}

// affected maps a zero row count to ErrNotFound.
func affected(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, core.ErrNotFound)
	}
	return nil
}

func (s *sqlStore) ListPictures(ctx context.Context) ([]*core.Picture, error) {
	var rows []pictureRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, asset_path, title, description, uploaded_at, owner FROM pictures ORDER BY id"); err != nil {
		logrus.WithError(err).Error("Failed to list pictures")
		return nil, err
	}
	pictures := make([]*core.Picture, 0, len(rows))
	for _, r := range rows {
		pictures = append(pictures, r.picture())
	}
	return pictures, nil
}

func (s *sqlStore) GetPicture(ctx context.Context, id int64) (*core.Picture, error) {
	var row pictureRow
	query := s.db.Rebind("SELECT id, asset_path, title, description, uploaded_at, owner FROM pictures WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundIfNoRows(err, "picture", id)
	}
	return row.picture(), nil
}

func (s *sqlStore) CreatePicture(ctx context.Context, picture *core.Picture) error {
	query := s.db.Rebind("INSERT INTO pictures (asset_path, title, description, uploaded_at, owner) VALUES (?, ?, ?, ?, ?) RETURNING id")
	err := s.db.QueryRowxContext(ctx, query,
		nullable(picture.AssetPath), picture.Title, picture.Description, picture.UploadedAt.UTC(), string(picture.Owner),
	).Scan(&picture.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to create picture")
		return err
	}
	logrus.WithFields(logrus.Fields{"picture_id": picture.ID, "user": picture.Owner}).Debug("Picture created successfully")
	return nil
}

func (s *sqlStore) UpdatePicture(ctx context.Context, picture *core.Picture) error {
	query := s.db.Rebind("UPDATE pictures SET asset_path = ?, title = ?, description = ?, uploaded_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query,
		nullable(picture.AssetPath), picture.Title, picture.Description, picture.UploadedAt.UTC(), picture.ID)
	if err != nil {
		logrus.WithError(err).WithField("picture_id", picture.ID).Error("Failed to update picture")
		return err
	}
	return affected(res, "picture", picture.ID)
}

func (s *sqlStore) DeletePicture(ctx context.Context, id int64) error {
	return s.deleteWithComments(ctx, "pictures", "picture_id", "picture", id)
}

func (s *sqlStore) ListNotes(ctx context.Context) ([]*core.Note, error) {
	var rows []noteRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT id, title, content, uploaded_at, owner FROM notes ORDER BY id"); err != nil {
		logrus.WithError(err).Error("Failed to list notes")
		return nil, err
	}
	notes := make([]*core.Note, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, r.note())
	}
	return notes, nil
}

func (s *sqlStore) GetNote(ctx context.Context, id int64) (*core.Note, error) {
	var row noteRow
	query := s.db.Rebind("SELECT id, title, content, uploaded_at, owner FROM notes WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundIfNoRows(err, "note", id)
	}
	return row.note(), nil
}

func (s *sqlStore) CreateNote(ctx context.Context, note *core.Note) error {
	query := s.db.Rebind("INSERT INTO notes (title, content, uploaded_at, owner) VALUES (?, ?, ?, ?) RETURNING id")
	err := s.db.QueryRowxContext(ctx, query, note.Title, note.Content, note.UploadedAt.UTC(), string(note.Owner)).Scan(&note.ID)
	if err != nil {
		logrus.WithError(err).Error("Failed to create note")
		return err
	}
	logrus.WithFields(logrus.Fields{"note_id": note.ID, "user": note.Owner}).Debug("Note created successfully")
	return nil
}

func (s *sqlStore) UpdateNote(ctx context.Context, note *core.Note) error {
	query := s.db.Rebind("UPDATE notes SET title = ?, content = ?, uploaded_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, note.Title, note.Content, note.UploadedAt.UTC(), note.ID)
	if err != nil {
		logrus.WithError(err).WithField("note_id", note.ID).Error("Failed to update note")
		return err
	}
	return affected(res, "note", note.ID)
}

func (s *sqlStore) DeleteNote(ctx context.Context, id int64) error {
	return s.deleteWithComments(ctx, "notes", "note_id", "note", id)
}

// deleteWithComments removes a parent row and its comments in one transaction.
func (s *sqlStore) deleteWithComments(ctx context.Context, table, fkColumn, what string, id int64) error {
	log := logrus.WithField(what+"_id", id)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() // Rollback on any error

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM comments WHERE "+fkColumn+" = ?"), id); err != nil {
		log.WithError(err).Error("Failed to delete comments")
		return err
	}
	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM "+table+" WHERE id = ?"), id)
	if err != nil {
		log.WithError(err).Errorf("Failed to delete %s", what)
		return err
	}
	if err := affected(res, what, id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Debugf("Deleted %s successfully", what)
	return nil
}

const commentColumns = "id, picture_id, note_id, description, commented_at, owner"

func (s *sqlStore) selectComments(ctx context.Context, query string, args ...any) ([]*core.Comment, error) {
	var rows []commentRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	comments := make([]*core.Comment, 0, len(rows))
	for _, r := range rows {
		c, err := r.comment()
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

func (s *sqlStore) ListAllComments(ctx context.Context) ([]*core.Comment, error) {
	return s.selectComments(ctx, "SELECT "+commentColumns+" FROM comments ORDER BY id")
}

func (s *sqlStore) ListComments(ctx context.Context, parent core.ParentRef) ([]*core.Comment, error) {
	if id, ok := parent.PictureID(); ok {
		return s.selectComments(ctx, "SELECT "+commentColumns+" FROM comments WHERE picture_id = ? ORDER BY id", id)
	}
	if id, ok := parent.NoteID(); ok {
		return s.selectComments(ctx, "SELECT "+commentColumns+" FROM comments WHERE note_id = ? ORDER BY id", id)
	}
	return []*core.Comment{}, nil
}

func (s *sqlStore) GetComment(ctx context.Context, id int64) (*core.Comment, error) {
	var row commentRow
	query := s.db.Rebind("SELECT " + commentColumns + " FROM comments WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundIfNoRows(err, "comment", id)
	}
	return row.comment()
}

// CreateComment inserts a comment after checking its parent exists.
func (s *sqlStore) CreateComment(ctx context.Context, comment *core.Comment) error {
	var pictureID, noteID sql.NullInt64
	var parentTable string
	if id, ok := comment.Parent.PictureID(); ok {
		pictureID = sql.NullInt64{Int64: id, Valid: true}
		parentTable = "pictures"
	} else if id, ok := comment.Parent.NoteID(); ok {
		noteID = sql.NullInt64{Int64: id, Valid: true}
		parentTable = "notes"
	} else {
		return fmt.Errorf("comment has no parent")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowxContext(ctx, tx.Rebind("SELECT 1 FROM "+parentTable+" WHERE id = ?"), comment.Parent.ID()).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("comment parent %s: %w", comment.Parent, core.ErrNotFound)
		}
		return err
	}

	query := tx.Rebind("INSERT INTO comments (picture_id, note_id, description, commented_at, owner) VALUES (?, ?, ?, ?, ?) RETURNING id")
	if err := tx.QueryRowxContext(ctx, query, pictureID, noteID, comment.Description, comment.CommentedAt.UTC(), string(comment.Owner)).Scan(&comment.ID); err != nil {
		logrus.WithError(err).Error("Failed to create comment")
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"comment_id": comment.ID, "parent": comment.Parent.String(), "user": comment.Owner}).Debug("Comment created successfully")
	return nil
}

// UpdateComment changes text and timestamp only. Parent and owner are fixed at creation.
func (s *sqlStore) UpdateComment(ctx context.Context, comment *core.Comment) error {
	query := s.db.Rebind("UPDATE comments SET description = ?, commented_at = ? WHERE id = ?")
	res, err := s.db.ExecContext(ctx, query, comment.Description, comment.CommentedAt.UTC(), comment.ID)
	if err != nil {
		logrus.WithError(err).WithField("comment_id", comment.ID).Error("Failed to update comment")
		return err
	}
	return affected(res, "comment", comment.ID)
}

func (s *sqlStore) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM comments WHERE id = ?"), id)
	if err != nil {
		logrus.WithError(err).WithField("comment_id", id).Error("Failed to delete comment")
		return err
	}
	return affected(res, "comment", id)
}
