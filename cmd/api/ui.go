package main

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/workflowservice/v1"
	"go.temporal.io/sdk/client"

	"dispute-resolution-service/internal/config"
	"dispute-resolution-service/internal/modal"
	"dispute-resolution-service/internal/workflows"
)

type uiServer struct {
	tc  client.Client
	t   *template.Template
	cfg config.Config
}

type uiRunRow struct {
	WorkflowID string
	RunID      string
	Status     string
}

type uiIndexData struct {
	Tab   string
	Query string
	Runs  []uiRunRow
	Hits  []uiRunRow
	Error string
}

type uiDetailData struct {
	WorkflowID     string
	RunID          string
	Steps          []modal.AgentStep
	Actions        []modal.ActionOutcome
	AssessmentJSON template.HTML
	OutcomeJSON    template.HTML
	Error          string
}

func registerUIRoutes(r chi.Router, tc client.Client, cfg config.Config) {
	t := template.Must(template.New("base").Parse(uiTemplates))
	s := &uiServer{tc: tc, t: t, cfg: cfg}

	r.Get("/ui", s.handleIndex)
	r.Post("/ui/disputes", s.handleSubmit)
	r.Get("/ui/wf/{workflowId}", s.handleDetail)
}

// handleIndex lists dispute workflows; the search tab matches on the dispute
// id via the WorkflowId prefix.
func (s *uiServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab == "" {
		tab = "runs"
	}
	q := r.URL.Query().Get("q")

	data := uiIndexData{Tab: tab, Query: q}

	ctx, cancel := context.WithTimeout(r.Context(), 8*time.Second)
	defer cancel()

	var query string
	switch tab {
	case "search":
		if q == "" {
			_ = s.t.ExecuteTemplate(w, "index", data)
			return
		}
		query = `WorkflowId STARTS_WITH "dispute-` + q + `"`
	default:
		tab = "runs"
		data.Tab = "runs"
		query = `WorkflowType = "ResolveDispute"`
	}

	resp, err := s.tc.ListWorkflow(ctx, &workflowservice.ListWorkflowExecutionsRequest{
		Query:    query,
		PageSize: 200,
	})
	if err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "index", data)
		return
	}

	for _, ex := range resp.Executions {
		if ex.Execution == nil {
			continue
		}
		row := uiRunRow{
			WorkflowID: ex.Execution.WorkflowId,
			RunID:      ex.Execution.RunId,
			Status:     ex.Status.String(),
		}
		if tab == "search" {
			data.Hits = append(data.Hits, row)
		} else {
			data.Runs = append(data.Runs, row)
		}
	}

	_ = s.t.ExecuteTemplate(w, "index", data)
}

// handleSubmit starts a workflow from the index form and redirects to its
// detail page.
func (s *uiServer) handleSubmit(w http.ResponseWriter, r *http.Request) {
	amount, _ := strconv.ParseFloat(r.FormValue("amount"), 64)
	disputeCase, err := caseFrom(startReq{
		CustomerID:   r.FormValue("customerId"),
		CardLastFour: r.FormValue("cardLastFour"),
		Amount:       amount,
		MerchantName: r.FormValue("merchantName"),
		Category:     r.FormValue("category"),
		Reason:       r.FormValue("reason"),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := client.StartWorkflowOptions{
		ID:                                       "dispute-" + disputeCase.DisputeID,
		TaskQueue:                                workflows.TaskQueue,
		WorkflowExecutionTimeout:                 2 * time.Minute,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
		WorkflowIDReusePolicy:                    enums.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	we, err := s.tc.ExecuteWorkflow(ctx, opts, workflows.ResolveDispute, workflows.Params{
		Case:   disputeCase,
		Config: workflowConfig(s.cfg.Workflow),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/ui/wf/"+we.GetID()+"?runId="+we.GetRunID(), http.StatusSeeOther)
}

// handleDetail shows one run: the step audit trail, assessment, actions, and
// outcome, all read through workflow queries.
func (s *uiServer) handleDetail(w http.ResponseWriter, r *http.Request) {
	wid := chi.URLParam(r, "workflowId")
	rid := r.URL.Query().Get("runId")

	data := uiDetailData{WorkflowID: wid, RunID: rid}

	var steps []modal.AgentStep
	if err := s.query(wid, rid, "steps", &steps); err != nil {
		data.Error = err.Error()
		_ = s.t.ExecuteTemplate(w, "detail", data)
		return
	}
	data.Steps = steps

	var assessment modal.Assessment
	if err := s.query(wid, rid, "assessment", &assessment); err == nil {
		data.AssessmentJSON = prettyJSON(assessment)
	}
	var actions []modal.ActionOutcome
	if err := s.query(wid, rid, "actions", &actions); err == nil {
		data.Actions = actions
	}
	var outcome modal.DisputeOutcome
	if err := s.query(wid, rid, "outcome", &outcome); err == nil && outcome.DisputeID != "" {
		data.OutcomeJSON = prettyJSON(outcome)
	}

	_ = s.t.ExecuteTemplate(w, "detail", data)
}

func (s *uiServer) query(wid, rid, name string, v any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	qr, err := s.tc.QueryWorkflow(ctx, wid, rid, name)
	if err != nil {
		return err
	}
	return qr.Get(v)
}

func prettyJSON(v any) template.HTML {
	b, _ := json.MarshalIndent(v, "", "  ")
	return template.HTML("<pre>" + template.HTMLEscapeString(string(b)) + "</pre>")
}

const uiTemplates = `
{{define "index"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Dispute Resolution</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .tabs a { margin-right: 12px; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
    .err { color: #b00020; }
    .muted { color: #666; }
    form.dispute label { display: block; margin-top: 8px; }
  </style>
</head>
<body>
  <h2>Dispute Resolution</h2>

  <div class="tabs">
    <a href="/ui?tab=runs">Runs</a>
    <a href="/ui?tab=search">Search</a>
  </div>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  {{if eq .Tab "runs"}}
    <h3>Submit a Dispute</h3>
    <form class="dispute" method="post" action="/ui/disputes">
      <label>Customer ID: <input name="customerId" value="CUST001"/></label>
      <label>Card last four: <input name="cardLastFour" value="4532"/></label>
      <label>Amount: <input name="amount" value="156.78"/></label>
      <label>Merchant: <input name="merchantName" value="Acme Corp"/></label>
      <label>Category:
        <select name="category">
          <option>Fraud</option>
          <option>Billing Error</option>
          <option>Authorization Issue</option>
        </select>
      </label>
      <label>Reason:<br/><textarea name="reason" rows="2" cols="60">Unauthorized charge on my statement</textarea></label>
      <br/><button type="submit">Start Investigation</button>
    </form>

    <h3>Workflow Runs</h3>
    <table>
      <thead><tr><th>Workflow</th><th>Status</th></tr></thead>
      <tbody>
      {{range .Runs}}
        <tr>
          <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
          <td>{{.Status}}</td>
        </tr>
      {{end}}
      </tbody>
    </table>
  {{else}}
    <h3>Search by Dispute ID</h3>
    <form method="get" action="/ui">
      <input type="hidden" name="tab" value="search"/>
      <input name="q" placeholder="DSP20260831..." value="{{.Query}}" style="width: 320px;"/>
      <button type="submit">Search</button>
    </form>

    {{if .Query}}
      <h4>Results</h4>
      <table>
        <thead><tr><th>Workflow</th><th>Status</th></tr></thead>
        <tbody>
        {{range .Hits}}
          <tr>
            <td><a href="/ui/wf/{{.WorkflowID}}?runId={{.RunID}}">{{.WorkflowID}}</a></td>
            <td>{{.Status}}</td>
          </tr>
        {{end}}
        </tbody>
      </table>
    {{end}}
  {{end}}
</body>
</html>
{{end}}

{{define "detail"}}
<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <title>Dispute Run</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .err { color: #b00020; }
    pre { background: #f7f7f7; padding: 12px; overflow: auto; }
    table { border-collapse: collapse; width: 100%; margin-top: 12px; }
    th, td { border: 1px solid #ddd; padding: 8px; }
  </style>
</head>
<body>
  <a href="/ui">&larr; Back</a>
  <h2>Dispute Run</h2>

  {{if .Error}}<p class="err">{{.Error}}</p>{{end}}

  <p><b>WorkflowID:</b> {{.WorkflowID}}<br/>
     <b>RunID:</b> {{.RunID}}</p>

  <h3>Steps</h3>
  <table>
    <thead><tr><th>Stage</th><th>Status</th><th>Started</th><th>Ended</th><th>Confidence</th><th>Reasoning</th></tr></thead>
    <tbody>
      {{range .Steps}}
        <tr>
          <td>{{.Name}}</td>
          <td>{{.Status}}</td>
          <td>{{.StartedAt.Format "15:04:05.000"}}</td>
          <td>{{if not .EndedAt.IsZero}}{{.EndedAt.Format "15:04:05.000"}}{{end}}</td>
          <td>{{printf "%.2f" .Confidence}}</td>
          <td>{{.Reasoning}}</td>
        </tr>
      {{end}}
    </tbody>
  </table>

  <h3>Assessment</h3>
  {{if .AssessmentJSON}}{{.AssessmentJSON}}{{else}}<p>(not available yet)</p>{{end}}

  <h3>Actions</h3>
  <table>
    <thead><tr><th>Action</th><th>Success</th><th>Reference</th><th>Error</th></tr></thead>
    <tbody>
      {{range .Actions}}
        <tr>
          <td>{{.Kind}}</td>
          <td>{{.Success}}</td>
          <td>{{.Reference}}</td>
          <td>{{.Error}}</td>
        </tr>
      {{end}}
    </tbody>
  </table>

  <h3>Outcome</h3>
  {{if .OutcomeJSON}}{{.OutcomeJSON}}{{else}}<p>(still running)</p>{{end}}
</body>
</html>
{{end}}
`
