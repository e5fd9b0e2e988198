package graph

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/stoalearn/stoa-backend/internal/domain"
	"github.com/stoalearn/stoa-backend/internal/platform/logger"
	"github.com/stoalearn/stoa-backend/internal/platform/neo4jdb"
)

// UpsertPrerequisiteEdges mirrors live prerequisite edges into Neo4j for
// graph visualization. Postgres stays the source of truth; callers treat
// failures as advisory and a nil client as disabled.
func UpsertPrerequisiteEdges(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, edges []*types.LecturePrerequisite, lecturesByID map[uuid.UUID]*types.Lecture) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	relRows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e == nil || e.LectureID == uuid.Nil || e.PrerequisiteLectureID == uuid.Nil {
			continue
		}
		row := map[string]any{
			"lecture_id":       e.LectureID.String(),
			"prerequisite_id":  e.PrerequisiteLectureID.String(),
			"is_required":      e.IsRequired,
			"importance_level": int64(e.ImportanceLevel),
			"synced_at":        now,
		}
		if l := lecturesByID[e.LectureID]; l != nil {
			row["lecture_title"] = l.Title
			row["lecture_category"] = l.Category
		} else {
			row["lecture_title"] = ""
			row["lecture_category"] = ""
		}
		if p := lecturesByID[e.PrerequisiteLectureID]; p != nil {
			row["prerequisite_title"] = p.Title
			row["prerequisite_category"] = p.Category
		} else {
			row["prerequisite_title"] = ""
			row["prerequisite_category"] = ""
		}
		relRows = append(relRows, row)
	}
	if len(relRows) == 0 {
		return nil
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	// Best-effort schema init.
	if res, err := session.Run(ctx, `CREATE CONSTRAINT lecture_id_unique IF NOT EXISTS FOR (l:Lecture) REQUIRE l.id IS UNIQUE`, nil); err != nil {
		if log != nil {
			log.Warn("neo4j schema init failed (continuing)", "error", err)
		}
	} else {
		_, _ = res.Consume(ctx)
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS r
MERGE (l:Lecture {id: r.lecture_id})
SET l.title = CASE WHEN r.lecture_title <> '' THEN r.lecture_title ELSE l.title END,
    l.category = CASE WHEN r.lecture_category <> '' THEN r.lecture_category ELSE l.category END,
    l.synced_at = r.synced_at
MERGE (p:Lecture {id: r.prerequisite_id})
SET p.title = CASE WHEN r.prerequisite_title <> '' THEN r.prerequisite_title ELSE p.title END,
    p.category = CASE WHEN r.prerequisite_category <> '' THEN r.prerequisite_category ELSE p.category END,
    p.synced_at = r.synced_at
MERGE (l)-[req:REQUIRES]->(p)
SET req.is_required = r.is_required,
    req.importance_level = r.importance_level,
    req.synced_at = r.synced_at
`, map[string]any{"rows": relRows})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// DeletePrerequisiteEdges removes mirrored REQUIRES relationships after an
// edge removal. Lecture nodes stay; only the relationship goes.
func DeletePrerequisiteEdges(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, edges []*types.LecturePrerequisite) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	relRows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		if e == nil || e.LectureID == uuid.Nil || e.PrerequisiteLectureID == uuid.Nil {
			continue
		}
		relRows = append(relRows, map[string]any{
			"lecture_id":      e.LectureID.String(),
			"prerequisite_id": e.PrerequisiteLectureID.String(),
		})
	}
	if len(relRows) == 0 {
		return nil
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $rows AS r
MATCH (l:Lecture {id: r.lecture_id})-[req:REQUIRES]->(p:Lecture {id: r.prerequisite_id})
DELETE req
`, map[string]any{"rows": relRows})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}

// DeleteLectureNodes removes mirrored lecture nodes and any attached
// relationships when lectures are deleted.
func DeleteLectureNodes(ctx context.Context, client *neo4jdb.Client, log *logger.Logger, lectureIDs []uuid.UUID) error {
	if client == nil || client.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ids := make([]string, 0, len(lectureIDs))
	for _, id := range lectureIDs {
		if id == uuid.Nil {
			continue
		}
		ids = append(ids, id.String())
	}
	if len(ids) == 0 {
		return nil
	}

	session := client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: client.Database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		res, err := tx.Run(ctx, `
UNWIND $ids AS id
MATCH (l:Lecture {id: id})
DETACH DELETE l
`, map[string]any{"ids": ids})
		if err != nil {
			return nil, err
		}
		if _, err := res.Consume(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	})
	return err
}
