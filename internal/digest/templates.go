package digest

// Email bodies are self-contained HTML documents with inline styles, since
// mail clients strip external CSS.

const digestTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Sales Pipeline Digest</title>
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #1a1a2e; max-width: 720px; margin: 0 auto; padding: 16px;">
<h1 style="font-size: 1.4rem; margin-bottom: 4px;">Sales Pipeline Digest</h1>
<p style="color: #6c757d; margin-top: 0;">{{.CurrentDate}} &middot; covering {{.RangeStart}} to {{.RangeEnd}}</p>

<h2 style="font-size: 1.1rem;">Key Metrics</h2>
<table style="width: 100%; border-collapse: collapse; font-size: 0.9rem;">
  <tr><td style="padding: 6px; border-bottom: 1px solid #dee2e6;">Total Pipeline</td><td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{currency .Snapshot.TotalPipeline}}</td></tr>
  <tr><td style="padding: 6px; border-bottom: 1px solid #dee2e6;">Qualified Pipeline (QTD)</td><td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{currency .Snapshot.QualifiedPipeline}}</td></tr>
  <tr><td style="padding: 6px; border-bottom: 1px solid #dee2e6;">Late Stage Pipeline</td><td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{currency .Snapshot.LateStageAmount}}</td></tr>
  <tr><td style="padding: 6px; border-bottom: 1px solid #dee2e6;">Average Deal Size</td><td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{currency .Snapshot.AvgDealSize}}</td></tr>
  <tr><td style="padding: 6px; border-bottom: 1px solid #dee2e6;">Win Rate</td><td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{percent .Snapshot.WinRate}}</td></tr>
  <tr><td style="padding: 6px; border-bottom: 1px solid #dee2e6;">Pipeline Velocity</td><td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{days .Snapshot.PipelineVelocity}}</td></tr>
</table>

<h2 style="font-size: 1.1rem;">Rep Rankings</h2>
<table style="width: 100%; border-collapse: collapse; font-size: 0.9rem;">
  <thead>
    <tr style="background: #f8f9fa;">
      <th style="padding: 6px; text-align: left;">Rank</th>
      <th style="padding: 6px; text-align: left;">Rep</th>
      <th style="padding: 6px; text-align: right;">Qualified Pipeline</th>
      <th style="padding: 6px; text-align: right;">Target</th>
      <th style="padding: 6px; text-align: right;">Percent to Plan</th>
    </tr>
  </thead>
  <tbody>
  {{range .Snapshot.RepPerformance}}
    <tr>
      <td style="padding: 6px; border-bottom: 1px solid #dee2e6;">{{.Rank}}</td>
      <td style="padding: 6px; border-bottom: 1px solid #dee2e6;">{{.Owner}}</td>
      <td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{currency .QualifiedPipeline}}</td>
      <td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{currency .Target}}</td>
      <td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{plan .PercentToPlan}}</td>
    </tr>
  {{end}}
  </tbody>
</table>

<h2 style="font-size: 1.1rem;">Pipeline Health</h2>
<p style="font-size: 0.9rem;">
  Average Stage 0 age: <strong>{{days .Snapshot.PipelineHealth.AvgStage0Age}}</strong> across
  <strong>{{.Snapshot.PipelineHealth.Stage0Count}}</strong> early-stage opportunities.
</p>
<table style="border-collapse: collapse; font-size: 0.9rem;">
  <tr style="background: #f8f9fa;">
  {{range .Snapshot.PipelineHealth.AgingBuckets}}<th style="padding: 6px 12px;">{{.Label}} days</th>{{end}}
  </tr>
  <tr>
  {{range .Snapshot.PipelineHealth.AgingBuckets}}<td style="padding: 6px 12px; text-align: center;">{{.Count}}</td>{{end}}
  </tr>
</table>

{{if .Snapshot.Diagnostics.HasWarnings}}
<p style="font-size: 0.85rem; color: #fd7e14;">
  Data quality: {{.Snapshot.Diagnostics.MalformedRows}} malformed rows excluded,
  {{.Snapshot.Diagnostics.InvertedDateRows}} rows with inverted date ranges,
  {{.Snapshot.Diagnostics.UnknownStageRows}} rows with an unknown stage.
</p>
{{end}}

<p style="font-size: 0.8rem; color: #6c757d;">Generated by Sales Stack Ranker.</p>
</body>
</html>`

const alertTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Label}} Alert</title>
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; color: #1a1a2e; max-width: 640px; margin: 0 auto; padding: 16px;">
<h1 style="font-size: 1.3rem; color: #dc3545;">{{.Label}} Alert</h1>
<p style="color: #6c757d; margin-top: 0;">{{.CurrentDate}}</p>

<table style="width: 100%; border-collapse: collapse; font-size: 0.9rem;">
  {{range .Fields}}
  <tr>
    <td style="padding: 6px; border-bottom: 1px solid #dee2e6;">{{.Name}}</td>
    <td style="padding: 6px; border-bottom: 1px solid #dee2e6; text-align: right;">{{.Value}}</td>
  </tr>
  {{end}}
</table>

<p style="font-size: 0.8rem; color: #6c757d;">Generated by Sales Stack Ranker.</p>
</body>
</html>`
