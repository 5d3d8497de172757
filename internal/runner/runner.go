package runner

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"apidiff/internal/client"
	"apidiff/internal/config"
	"apidiff/internal/diff"
	"apidiff/internal/model"
	"apidiff/internal/param"
)

// checkpointEvery is the number of diff-bearing cases between intermediate
// report saves on long runs.
const checkpointEvery = 1000

// Runner drives the pipeline: resolve parameters, build cases, call both
// endpoints per case, diff, accumulate. Configuration faults abort before
// any network activity; per-case failures become "error" rows and the run
// continues.
type Runner struct {
	cfg    *config.Config
	client *client.Client

	// Checkpoint, when set, receives the rows accumulated so far after
	// every batch of diff-bearing cases so a long run leaves a partial
	// report behind if it dies.
	Checkpoint func([]model.CaseResult)
}

func New(cfg *config.Config, c *client.Client) *Runner {
	return &Runner{cfg: cfg, client: c}
}

func (r *Runner) Run(ctx context.Context) ([]model.CaseResult, error) {
	groups, err := param.ResolveGroups(r.cfg.Params, r.cfg.BaseDir)
	if err != nil {
		return nil, err
	}
	cases := param.BuildCases(groups)
	log.Infof("total test cases: %d", len(cases))

	names := r.cfg.ParamNames()
	results := make([]model.CaseResult, 0, len(cases))
	diffCount := 0
	for _, tc := range cases {
		res := r.processCase(ctx, tc)
		results = append(results, res)

		label := caseLabel(tc, names)
		switch res.Status {
		case model.StatusError:
			log.Warnf("%s: %s", label, res.Detail)
		case model.StatusMismatch:
			log.Infof("%s: %s", label, diff.Render(res.Entries))
			diffCount++
			if r.Checkpoint != nil && diffCount%checkpointEvery == 0 {
				r.Checkpoint(results)
			}
		default:
			log.Infof("%s: no diff, has_data=%t", label, res.HasData)
		}
	}
	return results, nil
}

func (r *Runner) processCase(ctx context.Context, tc model.Case) model.CaseResult {
	oldRes := r.client.Call(ctx, r.cfg.OldAPI, tc)
	newRes := r.client.Call(ctx, r.cfg.NewAPI, tc)

	if !oldRes.OK || !newRes.OK {
		var details []string
		if !oldRes.OK {
			details = append(details, "old api: "+oldRes.Detail)
		}
		if !newRes.OK {
			details = append(details, "new api: "+newRes.Detail)
		}
		return model.CaseResult{
			Case:   tc,
			Status: model.StatusError,
			Detail: strings.Join(details, "; "),
		}
	}

	entries := diff.Compare(oldRes.Body, newRes.Body)
	status := model.StatusMatch
	if len(entries) > 0 {
		status = model.StatusMismatch
	}
	return model.CaseResult{
		Case:    tc,
		Status:  status,
		HasData: !diff.IsEmpty(oldRes.Body) || !diff.IsEmpty(newRes.Body),
		Entries: entries,
	}
}

func caseLabel(tc model.Case, names []string) string {
	if len(names) == 0 {
		return "(no params)"
	}
	values := make([]string, len(names))
	for i, n := range names {
		values[i] = tc[n]
	}
	return strings.Join(values, "-")
}
