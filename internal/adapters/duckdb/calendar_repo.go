package duckdb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/agencyflow/agencyflow/internal/core/domain"
)

func (r *Repository) SaveCalendar(ctx context.Context, cal domain.Calendar) error {
	query := `
	INSERT INTO calendars (id, client_id, month_name, strategy_completed, content_completed, creatives_completed, smo_completed, mm_content_status, acc_content_status, mm_creatives_status, acc_creatives_status, report_ref, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		month_name = excluded.month_name,
		strategy_completed = excluded.strategy_completed,
		content_completed = excluded.content_completed,
		creatives_completed = excluded.creatives_completed,
		smo_completed = excluded.smo_completed,
		mm_content_status = excluded.mm_content_status,
		acc_content_status = excluded.acc_content_status,
		mm_creatives_status = excluded.mm_creatives_status,
		acc_creatives_status = excluded.acc_creatives_status,
		report_ref = excluded.report_ref;
	`
	_, err := r.db.ExecContext(ctx, query,
		cal.ID, cal.ClientID, cal.MonthName,
		cal.StrategyCompleted, cal.ContentCompleted, cal.CreativesCompleted, cal.SMOCompleted,
		string(cal.MMContentStatus), string(cal.AccContentStatus),
		string(cal.MMCreativesStatus), string(cal.AccCreativesStatus),
		cal.ReportRef, cal.CreatedAt,
	)
	return err
}

func (r *Repository) GetCalendar(ctx context.Context, id domain.CalendarID) (domain.Calendar, error) {
	query := `SELECT id, client_id, month_name, strategy_completed, content_completed, creatives_completed, smo_completed, mm_content_status, acc_content_status, mm_creatives_status, acc_creatives_status, report_ref, created_at
	FROM calendars WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	var cal domain.Calendar
	var idStr, clientIDStr string
	var mmContent, accContent, mmCreatives, accCreatives, reportRef *string
	if err := row.Scan(&idStr, &clientIDStr, &cal.MonthName,
		&cal.StrategyCompleted, &cal.ContentCompleted, &cal.CreativesCompleted, &cal.SMOCompleted,
		&mmContent, &accContent, &mmCreatives, &accCreatives,
		&reportRef, &cal.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return domain.Calendar{}, fmt.Errorf("calendar %s: %w", id, domain.ErrNotFound)
		}
		return domain.Calendar{}, err
	}
	cal.ID = domain.CalendarID(idStr)
	cal.ClientID = domain.ClientID(clientIDStr)
	if mmContent != nil {
		cal.MMContentStatus = domain.ApprovalState(*mmContent)
	}
	if accContent != nil {
		cal.AccContentStatus = domain.ApprovalState(*accContent)
	}
	if mmCreatives != nil {
		cal.MMCreativesStatus = domain.ApprovalState(*mmCreatives)
	}
	if accCreatives != nil {
		cal.AccCreativesStatus = domain.ApprovalState(*accCreatives)
	}
	if reportRef != nil {
		cal.ReportRef = *reportRef
	}
	return cal, nil
}

func (r *Repository) SaveCalendarDate(ctx context.Context, d domain.CalendarDate) error {
	creativesJSON, err := json.Marshal(d.Creatives)
	if err != nil {
		return fmt.Errorf("failed to marshal creatives: %w", err)
	}
	internalJSON, err := json.Marshal(d.InternalStatus)
	if err != nil {
		return fmt.Errorf("failed to marshal internal status: %w", err)
	}
	clientJSON, err := json.Marshal(d.ClientApproval)
	if err != nil {
		return fmt.Errorf("failed to marshal client approval: %w", err)
	}

	query := `
	INSERT INTO calendar_dates (id, calendar_id, date, post_count, type, category, cta, resource, tagline, caption, hashtags, engagement_hooks, creatives_text, creatives, internal_status, client_approval, comments, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		date = excluded.date,
		post_count = excluded.post_count,
		type = excluded.type,
		category = excluded.category,
		cta = excluded.cta,
		resource = excluded.resource,
		tagline = excluded.tagline,
		caption = excluded.caption,
		hashtags = excluded.hashtags,
		engagement_hooks = excluded.engagement_hooks,
		creatives_text = excluded.creatives_text,
		creatives = excluded.creatives,
		internal_status = excluded.internal_status,
		client_approval = excluded.client_approval,
		comments = excluded.comments;
	`
	_, err = r.db.ExecContext(ctx, query,
		d.ID, d.CalendarID, d.Date, d.PostCount,
		d.Type, d.Category, d.CTA,
		d.Resource, d.Tagline, d.Caption, d.Hashtags, d.EngagementHooks, d.CreativesText,
		string(creativesJSON), string(internalJSON), string(clientJSON),
		d.Comments, d.CreatedAt,
	)
	return err
}

func (r *Repository) ListCalendarDates(ctx context.Context, calID domain.CalendarID) ([]domain.CalendarDate, error) {
	query := `SELECT id, calendar_id, date, post_count, type, category, cta, resource, tagline, caption, hashtags, engagement_hooks, creatives_text, CAST(creatives AS TEXT), CAST(internal_status AS TEXT), CAST(client_approval AS TEXT), comments, created_at
	FROM calendar_dates WHERE calendar_id = ? ORDER BY date ASC`
	rows, err := r.db.QueryContext(ctx, query, calID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []domain.CalendarDate
	for rows.Next() {
		var d domain.CalendarDate
		var idStr, calIDStr string
		var creativesJSON, internalJSON, clientJSON string

		if err := rows.Scan(&idStr, &calIDStr, &d.Date, &d.PostCount,
			&d.Type, &d.Category, &d.CTA,
			&d.Resource, &d.Tagline, &d.Caption, &d.Hashtags, &d.EngagementHooks, &d.CreativesText,
			&creativesJSON, &internalJSON, &clientJSON,
			&d.Comments, &d.CreatedAt); err != nil {
			return nil, err
		}
		d.ID = domain.CalendarDateID(idStr)
		d.CalendarID = domain.CalendarID(calIDStr)
		if err := json.Unmarshal([]byte(creativesJSON), &d.Creatives); err != nil {
			return nil, fmt.Errorf("failed to unmarshal creatives for date %s: %w", idStr, err)
		}
		if err := json.Unmarshal([]byte(internalJSON), &d.InternalStatus); err != nil {
			return nil, fmt.Errorf("failed to unmarshal internal status for date %s: %w", idStr, err)
		}
		if err := json.Unmarshal([]byte(clientJSON), &d.ClientApproval); err != nil {
			return nil, fmt.Errorf("failed to unmarshal client approval for date %s: %w", idStr, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}
