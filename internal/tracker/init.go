package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DazzleML/ghtraf/internal/gh"
	"github.com/DazzleML/ghtraf/pkg/badge"
	"github.com/DazzleML/ghtraf/pkg/persist"
	"github.com/DazzleML/ghtraf/pkg/stats"
)

// InitOptions configures onboarding for a repository.
type InitOptions struct {
	Owner string
	Repo  string

	// Now is the evaluation instant; zero means time.Now.
	Now time.Time

	// WithArchive also provisions a gist for monthly rollups.
	WithArchive bool

	// DryRun resolves repository metadata and builds the seed document
	// without creating any gists.
	DryRun bool
}

// InitResult reports the provisioned gists.
type InitResult struct {
	StateGist   string
	ArchiveGist string
	Document    *stats.Document
}

// Init provisions the gists for a repository: a state gist seeded with
// an empty document and placeholder badges, and optionally an archive
// gist for monthly rollups. The caller persists the returned gist ids
// into the config file.
func Init(ctx context.Context, client Client, opts InitOptions) (*InitResult, error) {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	info, err := client.FetchRepoInfo(ctx, opts.Owner, opts.Repo)
	if err != nil {
		return nil, err
	}

	today := stats.DateOf(now.UTC())
	doc := stats.NewDocument(today, info.Created)

	if opts.DryRun {
		return &InitResult{Document: doc}, nil
	}

	files, err := initFiles(doc)
	if err != nil {
		return nil, err
	}

	fullName := opts.Owner + "/" + opts.Repo

	stateGist, err := client.CreateGist(ctx, "github traffic state for "+fullName, files)
	if err != nil {
		return nil, err
	}

	result := &InitResult{StateGist: stateGist, Document: doc}

	if opts.WithArchive {
		readme := fmt.Sprintf("Monthly traffic archives for %s.\n", fullName)

		archiveGist, err := client.CreateGist(ctx, "traffic archive for "+fullName, map[string][]byte{
			"README.md": []byte(readme),
		})
		if err != nil {
			return nil, err
		}

		result.ArchiveGist = archiveGist
	}

	return result, nil
}

// initFiles is renderFiles with placeholder badges: no traffic has
// been observed yet, and a zero would read as a measurement.
func initFiles(doc *stats.Document) (map[string][]byte, error) {
	files := make(map[string][]byte, len(badgeFiles)+1)

	var buf bytes.Buffer
	if err := persist.NewJSONCodec().Encode(&buf, doc); err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}

	files[gh.StateFileName] = buf.Bytes()

	for _, bf := range badgeFiles {
		payload, err := json.Marshal(badge.Placeholder(bf.label))
		if err != nil {
			return nil, fmt.Errorf("encode badge %s: %w", bf.file, err)
		}

		files[bf.file] = payload
	}

	return files, nil
}
