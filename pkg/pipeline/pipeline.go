package pipeline

import (
	"context"
	"errors"
	"fmt"

	"igharvest/pkg/contact"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/extract"
	"igharvest/pkg/logger"
	"igharvest/pkg/report"
	"igharvest/pkg/session"
	"igharvest/pkg/storage"
)

const (
	stageDiscovery = "discovery"
	stageDetail    = "detail"
	stageProfile   = "profile"
)

// Dependencies are the collaborators of a run. Discoverer is only needed
// by Run.
type Dependencies struct {
	Discoverer   Discoverer
	Cookies      session.CookieSource
	Details      DetailFetcher
	Profiles     ProfileFetcher
	Sink         Sink
	DetailPacer  Pacer
	ProfilePacer Pacer
	Sessions     SessionSaver
	Logger       logger.Logger
}

// Options select what a run collects and writes
type Options struct {
	Topic        string
	ScrollPasses int
	// Account names the stored session written when SaveSession is set
	Account     string
	SaveSession bool
	Workbook    bool
	Report      bool
}

// Result is everything a run collected, also on partial runs
type Result struct {
	Rows     []storage.CommentRow
	Profiles []contact.Record
	Report   *report.Report
}

// Pipeline sequences discovery, detail, extraction and enrichment
type Pipeline struct {
	deps Dependencies
	opts Options
}

type noPause struct{}

func (noPause) Pause(ctx context.Context) error { return ctx.Err() }

// New validates deps and returns a pipeline
func New(deps Dependencies, opts Options) (*Pipeline, error) {
	if deps.Cookies == nil {
		return nil, errors.New("pipeline: cookie source is required")
	}
	if deps.Profiles == nil {
		return nil, errors.New("pipeline: profile fetcher is required")
	}
	if deps.Sink == nil {
		return nil, errors.New("pipeline: sink is required")
	}
	if deps.DetailPacer == nil {
		deps.DetailPacer = noPause{}
	}
	if deps.ProfilePacer == nil {
		deps.ProfilePacer = noPause{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}
	return &Pipeline{deps: deps, opts: opts}, nil
}

// Run performs a full harvest for the configured topic.
//
// Discovery timeout, a session without cookies and a login timeout abort
// the run. Failures of single posts or profiles are logged, recorded in the
// report and skipped. When ctx is cancelled the rows and profiles collected
// so far are still written and ctx's error is returned.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if p.deps.Discoverer == nil || p.deps.Details == nil {
		return nil, errors.New("pipeline: discoverer and detail fetcher are required for a harvest")
	}

	rep := report.New(p.opts.Topic)
	rep.ScrollPasses = p.opts.ScrollPasses
	log := p.deps.Logger.WithFields(map[string]interface{}{
		"run_id": rep.RunID,
		"topic":  p.opts.Topic,
	})
	st := newState()

	logger.LogStage(log, stageDiscovery, "started", map[string]interface{}{"scroll_passes": p.opts.ScrollPasses})
	refs, err := p.deps.Discoverer.Discover(ctx, p.opts.Topic, p.opts.ScrollPasses)
	if err != nil {
		return p.abort(ctx, log, rep, st, fmt.Errorf("discovery: %w", err))
	}
	for _, ref := range refs {
		st.addPost(ref)
	}
	rep.PostsDiscovered = len(st.refs)
	logger.LogStage(log, stageDiscovery, "finished", map[string]interface{}{"posts": len(st.refs)})

	creds, err := p.bridge(ctx, log)
	if err != nil {
		return p.abort(ctx, log, rep, st, err)
	}

	p.collectComments(ctx, log, rep, st, creds)
	profiles := p.enrich(ctx, log, rep, st.identities, creds)

	return p.flush(ctx, log, rep, st.rows, profiles, true)
}

// Enrich looks up each username once and writes only the profiles table.
// It serves re-runs of enrichment over an existing comments table.
func (p *Pipeline) Enrich(ctx context.Context, usernames []string) (*Result, error) {
	rep := report.New(p.opts.Topic)
	log := p.deps.Logger.WithField("run_id", rep.RunID)

	st := newState()
	for _, u := range usernames {
		st.addIdentity(u)
	}

	creds, err := p.bridge(ctx, log)
	if err != nil {
		return p.abort(ctx, log, rep, st, err)
	}

	profiles := p.enrich(ctx, log, rep, st.identities, creds)
	return p.flush(ctx, log, rep, nil, profiles, false)
}

func (p *Pipeline) bridge(ctx context.Context, log logger.Logger) (session.CredentialBag, error) {
	creds, err := session.Bridge(ctx, p.deps.Cookies)
	if err != nil {
		return nil, fmt.Errorf("session bridge: %w", err)
	}
	log.InfoWithFields("session bridged", map[string]interface{}{
		"cookies": len(creds),
	})

	if p.opts.SaveSession && p.deps.Sessions != nil && p.opts.Account != "" {
		if err := p.deps.Sessions.SaveSession(p.opts.Account, creds); err != nil {
			log.WithError(err).Warn("failed to store session")
		} else {
			log.WithField("account", p.opts.Account).Info("session stored")
		}
	}
	return creds, nil
}

func (p *Pipeline) collectComments(ctx context.Context, log logger.Logger, rep *report.Report, st *state, creds session.CredentialBag) {
	logger.LogStage(log, stageDetail, "started", map[string]interface{}{"posts": len(st.refs)})

	for _, ref := range st.refs {
		if err := p.deps.DetailPacer.Pause(ctx); err != nil {
			break
		}

		media, err := p.deps.Details.FetchPostDetail(ctx, ref, creds)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.LogItemSkipped(log, stageDetail, ref.Shortcode, err)
			rep.AddSkip(stageDetail, ref.Shortcode, err)
			continue
		}

		usernames := extract.Identities(media)
		added := st.addComments(ref, usernames)
		rep.PostsFetched++

		log.DebugWithFields("post processed", map[string]interface{}{
			"shortcode":  ref.Shortcode,
			"commenters": len(usernames),
			"new":        added,
		})
	}

	rep.CommentRows = len(st.rows)
	rep.UniqueCommenters = len(st.identities)
	logger.LogStage(log, stageDetail, "finished", map[string]interface{}{
		"posts_fetched":     rep.PostsFetched,
		"comment_rows":      rep.CommentRows,
		"unique_commenters": rep.UniqueCommenters,
	})
}

func (p *Pipeline) enrich(ctx context.Context, log logger.Logger, rep *report.Report, usernames []string, creds session.CredentialBag) []contact.Record {
	logger.LogStage(log, stageProfile, "started", map[string]interface{}{"identities": len(usernames)})
	rep.UniqueCommenters = len(usernames)

	profiles := []contact.Record{}
	for _, username := range usernames {
		if err := p.deps.ProfilePacer.Pause(ctx); err != nil {
			break
		}

		user, err := p.deps.Profiles.FetchProfile(ctx, username, creds)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.LogItemSkipped(log, stageProfile, username, err)
			rep.AddSkip(stageProfile, username, err)
			continue
		}

		record := contact.Parse(username, user.Biography)
		profiles = append(profiles, record)
		if record.HasAny() {
			rep.ProfilesWithContact++
		}
	}

	rep.ProfilesEnriched = len(profiles)
	logger.LogStage(log, stageProfile, "finished", map[string]interface{}{
		"profiles":     rep.ProfilesEnriched,
		"with_contact": rep.ProfilesWithContact,
	})
	return profiles
}

// abort ends a run on a fatal error, writing only the report
func (p *Pipeline) abort(ctx context.Context, log logger.Logger, rep *report.Report, st *state, err error) (*Result, error) {
	status := report.StatusFailed
	if ctx.Err() != nil {
		status = report.StatusInterrupted
	}
	log.WithError(err).ErrorWithFields("run aborted", map[string]interface{}{
		"fatal": errs.IsFatal(err),
	})
	rep.Finish(status, err)
	p.writeReport(log, rep)
	return &Result{Rows: st.rows, Profiles: []contact.Record{}, Report: rep}, err
}

// flush writes whatever was collected. Interrupted runs flush too.
func (p *Pipeline) flush(ctx context.Context, log logger.Logger, rep *report.Report, rows []storage.CommentRow, profiles []contact.Record, withComments bool) (*Result, error) {
	var writeErrs []error

	if withComments {
		if path, err := p.deps.Sink.WriteComments(rows); err != nil {
			writeErrs = append(writeErrs, err)
		} else {
			rep.AddOutput("comments", path)
		}
	}
	if path, err := p.deps.Sink.WriteProfiles(profiles); err != nil {
		writeErrs = append(writeErrs, err)
	} else {
		rep.AddOutput("profiles", path)
	}
	if p.opts.Workbook {
		if path, err := p.deps.Sink.WriteWorkbook(rows, profiles); err != nil {
			writeErrs = append(writeErrs, err)
		} else {
			rep.AddOutput("workbook", path)
		}
	}

	runErr := ctx.Err()
	writeErr := errors.Join(writeErrs...)
	switch {
	case writeErr != nil:
		rep.Finish(report.StatusFailed, writeErr)
	case runErr != nil:
		log.WithError(runErr).Warn("run interrupted, partial results written")
		rep.Finish(report.StatusInterrupted, runErr)
	default:
		rep.Finish(report.StatusCompleted, nil)
	}
	p.writeReport(log, rep)

	log.InfoWithFields("run finished", map[string]interface{}{
		"status":       string(rep.Status),
		"comment_rows": len(rows),
		"profiles":     len(profiles),
		"skipped":      len(rep.Skipped),
	})

	result := &Result{Rows: rows, Profiles: profiles, Report: rep}
	if writeErr != nil {
		return result, fmt.Errorf("writing outputs: %w", writeErr)
	}
	return result, runErr
}

func (p *Pipeline) writeReport(log logger.Logger, rep *report.Report) {
	if !p.opts.Report {
		return
	}
	path, err := p.deps.Sink.WriteReport(rep)
	if err != nil {
		log.WithError(err).Warn("failed to write run report")
		return
	}
	log.WithField("path", path).Debug("run report written")
}
