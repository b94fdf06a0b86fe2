package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	jsonapi "github.com/bjornharrtell/json-api"
	"github.com/dekarrin/jellog"
)

type check struct {
	name string
	fn   func(ctx context.Context, ses *jsonapi.Session) error
}

var checks = []check{
	{"find all with includes", checkFindAll},
	{"find by id", checkFind},
	{"find missing id is not-found", checkFindMissing},
	{"find related has-many", checkFindRelated},
	{"create and save record", checkSave},
	{"atomic batch with lid cross-reference", checkAtomic},
}

func runChecks(ses *jsonapi.Session, logger jellog.Logger[string], quiet bool) (passed, failed int) {
	for _, c := range checks {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.fn(ctx, ses)
		cancel()

		if err != nil {
			logger.Errorf("FAIL %s: %v", c.name, err)
			failed++
			continue
		}
		if !quiet {
			logger.Infof("ok   %s", c.name)
		}
		passed++
	}
	return passed, failed
}

func checkFindAll(ctx context.Context, ses *jsonapi.Session) error {
	_, records, err := ses.FindAll(ctx, "articles", nil, nil)
	if err != nil {
		return err
	}
	if len(records) != 1 {
		return fmt.Errorf("expected 1 article, got %d", len(records))
	}

	art := records[0]
	if art.Get("title") == nil {
		return fmt.Errorf("article has no title")
	}
	comments := art.RelatedAll("comments")
	if len(comments) != 2 {
		return fmt.Errorf("expected 2 comments, got %d", len(comments))
	}
	author := art.Related("author")
	if author == nil {
		return fmt.Errorf("article author not resolved")
	}
	if author.Get("firstName") != "Dan" {
		return fmt.Errorf("author firstName = %v", author.Get("firstName"))
	}
	if comments[0].Related("author") != author {
		return fmt.Errorf("comment author is not the shared author record")
	}
	return nil
}

func checkFind(ctx context.Context, ses *jsonapi.Session) error {
	art, err := ses.Find(ctx, "articles", "1", nil, nil)
	if err != nil {
		return err
	}
	if art.ID != "1" {
		return fmt.Errorf("got id %q", art.ID)
	}
	return nil
}

func checkFindMissing(ctx context.Context, ses *jsonapi.Session) error {
	_, err := ses.Find(ctx, "articles", "does-not-exist", nil, nil)
	if err == nil {
		return fmt.Errorf("expected an error")
	}
	// the mock answers 404, so this surfaces as a transport error
	if !errors.Is(err, jsonapi.ErrTransport) {
		return fmt.Errorf("expected a transport error, got %v", err)
	}
	return nil
}

func checkFindRelated(ctx context.Context, ses *jsonapi.Session) error {
	art, err := ses.Find(ctx, "articles", "1", nil, nil)
	if err != nil {
		return err
	}
	if _, err := ses.FindRelated(ctx, art, "comments", nil, nil); err != nil {
		return err
	}
	if len(art.RelatedAll("comments")) != 2 {
		return fmt.Errorf("expected 2 comments after find-related")
	}
	return nil
}

func checkSave(ctx context.Context, ses *jsonapi.Session) error {
	rec, err := ses.CreateRecord("articles", map[string]any{
		"lid":   "new-article",
		"title": "Saved by japitest",
	})
	if err != nil {
		return err
	}

	saved, err := ses.SaveRecord(ctx, rec, nil)
	if err != nil {
		return err
	}
	if saved.ID == "" {
		return fmt.Errorf("saved record has no server id")
	}
	if saved.Get("title") != "Saved by japitest" {
		return fmt.Errorf("saved title = %v", saved.Get("title"))
	}
	return nil
}

func checkAtomic(ctx context.Context, ses *jsonapi.Session) error {
	person, err := ses.CreateRecord("people", map[string]any{
		"lid":        "local-1",
		"first-name": "John",
	})
	if err != nil {
		return err
	}
	article, err := ses.CreateRecord("articles", map[string]any{
		"title": "Atomic article",
	})
	if err != nil {
		return err
	}
	article.Set("author", person)

	records, err := ses.SaveAtomic(ctx, []jsonapi.AtomicOperation{
		{Op: jsonapi.OpAdd, Record: person},
		{Op: jsonapi.OpAdd, Record: article},
	}, nil)
	if err != nil {
		return err
	}
	if len(records) != 2 {
		return fmt.Errorf("expected 2 result records, got %d", len(records))
	}
	if records[0].ID == "" || records[1].ID == "" {
		return fmt.Errorf("result records missing server ids")
	}
	return nil
}
