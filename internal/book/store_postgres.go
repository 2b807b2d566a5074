// Copyright (c) 2026 Iqra Labs. All rights reserved.
// Author: platform@iqra.app

// PostgreSQL implementation of the catalogue data access.
//
// # Performance Notes
//
//   - Window Function: COUNT(*) OVER() retrieves the total result count
//     without a second round-trip.
//   - ILIKE search covers title and author; the catalogue is small enough
//     that a trigram index is deferred until listing latency demands it.

package book

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iqralabs/iqra/internal/platform/apperr"
	"github.com/iqralabs/iqra/internal/platform/dberr"
)

// bookRepository implements the [Repository] interface using pgx.
type bookRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL backed catalogue store.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &bookRepository{pool: pool}
}

// List returns a filtered, paginated slice of books and the total count.
func (repository *bookRepository) List(ctx context.Context, filter Filter, limit, offset int) ([]*Book, int, error) {

	var queryBuilder strings.Builder
	var args []any
	argID := 1

	// Window function delivers the total count alongside each row.
	queryBuilder.WriteString(`
		SELECT b.id, b.slug, b.title, b.author, b.category, b.covercolor,
		       b.description, b.totalpages, b.createdat,
		       COUNT(*) OVER() AS total_count
		FROM core.book b
		WHERE 1 = 1
	`)

	if filter.Search != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND (b.title ILIKE $%d OR b.author ILIKE $%d)", argID, argID))
		args = append(args, "%"+filter.Search+"%")
		argID++
	}

	if filter.Category != "" {
		queryBuilder.WriteString(fmt.Sprintf(" AND b.category = $%d", argID))
		args = append(args, filter.Category)
		argID++
	}

	queryBuilder.WriteString(fmt.Sprintf(" ORDER BY b.createdat DESC LIMIT $%d OFFSET $%d", argID, argID+1))
	args = append(args, limit, offset)

	rows, err := repository.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_book_repo_list_failed: %w", err)
	}
	defer rows.Close()

	var books []*Book
	totalCount := 0

	for rows.Next() {
		book := &Book{}
		if err := rows.Scan(
			&book.ID,
			&book.Slug,
			&book.Title,
			&book.Author,
			&book.Category,
			&book.CoverColor,
			&book.Description,
			&book.TotalPages,
			&book.CreatedAt,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("postgres_book_repo_list_scan_failed: %w", err)
		}
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_book_repo_list_rows_failed: %w", err)
	}

	return books, totalCount, nil
}

// FindByID returns the book with the given ID.
func (repository *bookRepository) FindByID(ctx context.Context, id string) (*Book, error) {
	const query = `
		SELECT id, slug, title, author, category, covercolor, description, totalpages, createdat
		FROM core.book
		WHERE id = $1`

	return repository.findOne(ctx, query, id)
}

// FindBySlug returns the book with the given URL slug.
func (repository *bookRepository) FindBySlug(ctx context.Context, slug string) (*Book, error) {
	const query = `
		SELECT id, slug, title, author, category, covercolor, description, totalpages, createdat
		FROM core.book
		WHERE slug = $1`

	return repository.findOne(ctx, query, slug)
}

// findOne executes a single-row book lookup and maps pgx.ErrNoRows.
func (repository *bookRepository) findOne(ctx context.Context, query string, arg any) (*Book, error) {
	book := &Book{}
	err := repository.pool.QueryRow(ctx, query, arg).Scan(
		&book.ID,
		&book.Slug,
		&book.Title,
		&book.Author,
		&book.Category,
		&book.CoverColor,
		&book.Description,
		&book.TotalPages,
		&book.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Book")
		}
		return nil, fmt.Errorf("postgres_book_repo_find_failed: %w", err)
	}

	return book, nil
}

// Pages returns all pages of a book ordered by page number.
func (repository *bookRepository) Pages(ctx context.Context, bookID string) ([]*Page, error) {
	const query = `
		SELECT id, bookid, pagenumber, content, createdat
		FROM core.bookpage
		WHERE bookid = $1
		ORDER BY pagenumber ASC`

	rows, err := repository.pool.Query(ctx, query, bookID)
	if err != nil {
		return nil, fmt.Errorf("postgres_book_repo_pages_failed: %w", err)
	}
	defer rows.Close()

	pages := make([]*Page, 0)
	for rows.Next() {
		page := &Page{}
		if err := rows.Scan(
			&page.ID,
			&page.BookID,
			&page.PageNumber,
			&page.Content,
			&page.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres_book_repo_pages_scan_failed: %w", err)
		}
		pages = append(pages, page)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres_book_repo_pages_rows_failed: %w", err)
	}

	return pages, nil
}

// Create persists a new book together with its ordered pages.
//
// The book row and all page rows are written in one transaction so the
// catalogue never exposes a book with a partial page sequence.
func (repository *bookRepository) Create(ctx context.Context, book *Book, pages []*Page) error {
	transaction, err := repository.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres_book_repo_create_begin_failed: %w", err)
	}
	defer func() { _ = transaction.Rollback(ctx) }()

	const bookQuery = `
		INSERT INTO core.book (id, slug, title, author, category, covercolor, description, totalpages, createdat)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	if _, err := transaction.Exec(ctx, bookQuery,
		book.ID,
		book.Slug,
		book.Title,
		book.Author,
		book.Category,
		book.CoverColor,
		book.Description,
		book.TotalPages,
		book.CreatedAt,
	); err != nil {
		return dberr.Wrap(err, "postgres_book_repo_create_failed")
	}

	const pageQuery = `
		INSERT INTO core.bookpage (id, bookid, pagenumber, content, createdat)
		VALUES ($1, $2, $3, $4, $5)`

	for _, page := range pages {
		if _, err := transaction.Exec(ctx, pageQuery,
			page.ID,
			page.BookID,
			page.PageNumber,
			page.Content,
			page.CreatedAt,
		); err != nil {
			return fmt.Errorf("postgres_book_repo_create_page_failed: %w", err)
		}
	}

	if err := transaction.Commit(ctx); err != nil {
		return fmt.Errorf("postgres_book_repo_create_commit_failed: %w", err)
	}

	return nil
}
