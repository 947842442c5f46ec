package workbook

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"prodplan/internal/model"
	"prodplan/internal/schedule"
)

// 生成阶段（GenerationError.Stage）
const (
	StageValidate  = "validate"
	StageExpand    = "expand"
	StageSerialize = "serialize"
)

// GenerationError 生成失败；Stage 为失败阶段，sheet 阶段形如 "sheet:Weekly Pivot"
type GenerationError struct {
	Stage string
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate workbook (%s): %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// Renderer 把工作簿模型序列化为字节
type Renderer interface {
	Render(f *excelize.File) ([]byte, error)
}

type bufferRenderer struct{}

func (bufferRenderer) Render(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Progress 生成进度（0-100）
type Progress struct {
	Percent int
	Stage   string
}

// Options 生成选项
type Options struct {
	IncludeDashboard   bool
	TableStyle         string
	DefaultColumnWidth float64
	DateFormat         string

	Logger   *slog.Logger
	Renderer Renderer
	// OnProgress 可选，按阶段回调
	OnProgress func(Progress)
}

// DefaultOptions 默认选项（与 config.DefaultConfig 的 [workbook] 一致）
func DefaultOptions() Options {
	return Options{
		IncludeDashboard:   true,
		TableStyle:         "TableStyleMedium2",
		DefaultColumnWidth: 14,
		DateFormat:         "yyyy-mm-dd",
	}
}

// Result 生成结果
type Result struct {
	Data     []byte
	FileName string
	Summary  model.GenerationSummary
}

// Generator 生产计划工作簿生成器
//
// 不持有可变状态，可被多个请求并发使用；每次 Generate 都新建工作簿。
type Generator struct {
	opts Options
}

// NewGenerator 创建生成器，未设置的选项取默认值
func NewGenerator(opts Options) *Generator {
	def := DefaultOptions()
	if opts.TableStyle == "" {
		opts.TableStyle = def.TableStyle
	}
	if opts.DefaultColumnWidth <= 0 {
		opts.DefaultColumnWidth = def.DefaultColumnWidth
	}
	if opts.DateFormat == "" {
		opts.DateFormat = def.DateFormat
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Renderer == nil {
		opts.Renderer = bufferRenderer{}
	}
	return &Generator{opts: opts}
}

// Options 返回生效的选项
func (g *Generator) Options() Options { return g.opts }

// WithDashboard 返回仅 IncludeDashboard 不同的生成器副本
func (g *Generator) WithDashboard(include bool) *Generator {
	opts := g.opts
	opts.IncludeDashboard = include
	return &Generator{opts: opts}
}

// WithProgress 返回带进度回调的生成器副本（用于单个请求）
func (g *Generator) WithProgress(fn func(Progress)) *Generator {
	opts := g.opts
	opts.OnProgress = fn
	return &Generator{opts: opts}
}

// builder 单次生成的上下文
type builder struct {
	f       *excelize.File
	st      *styles
	opts    Options
	project *model.ProjectData
	items   []model.ScheduleItem
	dates   []time.Time
	weeks   []int
	days    int
}

type sheetStep struct {
	name  string
	build func(*builder, string) error
}

// Generate 校验 → 展开排程 → 分配目标 → 依次构建各表 → 序列化
//
// 任一步失败返回 *GenerationError，不返回部分结果。
func (g *Generator) Generate(p *model.ProjectData) (*Result, error) {
	log := g.opts.Logger
	started := time.Now()
	g.progress(0, StageValidate)

	if err := p.Validate(); err != nil {
		return nil, &GenerationError{Stage: StageValidate, Err: err}
	}

	g.progress(10, StageExpand)
	from, to, err := schedule.ParseRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, &GenerationError{Stage: StageExpand, Err: err}
	}
	items, err := schedule.Expand(p)
	if err != nil {
		return nil, &GenerationError{Stage: StageExpand, Err: err}
	}
	schedule.Distribute(items, p.Goal)
	log.Debug("schedule expanded",
		"project", p.Name,
		"rows", len(items),
		"skipped_actuals", schedule.UnparsableActuals(p.ActualData),
		"elapsed", time.Since(started))

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	st, err := newStyles(f, g.opts.DateFormat)
	if err != nil {
		return nil, &GenerationError{Stage: "styles", Err: err}
	}

	b := &builder{
		f:       f,
		st:      st,
		opts:    g.opts,
		project: p,
		items:   items,
		dates:   schedule.UniqueDates(items),
		weeks:   schedule.ISOWeeks(items),
		days:    len(schedule.Days(from, to)),
	}

	reserved := []string{DailySheetName, PivotSheetName, excelReservedSheetName}
	if g.opts.IncludeDashboard {
		reserved = append(reserved, DashboardSheetName)
	}
	planName := uniqueSheetName(SanitizeSheetName(p.Name, PlanSheetFallback), reserved)

	steps := []sheetStep{
		{DailySheetName, buildDailySheet},
		{planName, buildPlanSheet},
		{PivotSheetName, buildPivotSheet},
	}
	if g.opts.IncludeDashboard {
		steps = append(steps, sheetStep{DashboardSheetName, buildDashboardSheet})
	}

	sheets := make([]string, 0, len(steps))
	for i, step := range steps {
		stage := "sheet:" + step.name
		g.progress(20+60*i/len(steps), stage)
		stepStarted := time.Now()

		if i == 0 {
			err = f.SetSheetName("Sheet1", step.name)
		} else {
			_, err = f.NewSheet(step.name)
		}
		if err == nil {
			err = step.build(b, step.name)
		}
		if err != nil {
			return nil, &GenerationError{Stage: stage, Err: err}
		}
		sheets = append(sheets, step.name)
		log.Debug("sheet built", "sheet", step.name, "elapsed", time.Since(stepStarted))
	}
	f.SetActiveSheet(0)

	g.progress(90, StageSerialize)
	data, err := g.opts.Renderer.Render(f)
	if err != nil {
		return nil, &GenerationError{Stage: StageSerialize, Err: err}
	}

	res := &Result{
		Data:     data,
		FileName: FileName(p.Name),
		Summary: model.GenerationSummary{
			ProjectName:      p.Name,
			Days:             b.days,
			Resources:        len(p.Resources),
			Rows:             len(items),
			Weeks:            len(b.weeks),
			Goal:             p.Goal,
			TargetTotal:      schedule.TargetTotal(items),
			MatchedActuals:   schedule.CountMatched(items),
			IncludeDashboard: g.opts.IncludeDashboard,
			Sheets:           sheets,
		},
	}
	res.Summary.FileName = res.FileName
	g.progress(100, "done")

	log.Info("workbook generated",
		"project", p.Name,
		"file", res.FileName,
		"rows", res.Summary.Rows,
		"weeks", res.Summary.Weeks,
		"matched_actuals", res.Summary.MatchedActuals,
		"bytes", len(data),
		"elapsed", time.Since(started))
	return res, nil
}

func (g *Generator) progress(percent int, stage string) {
	if g.opts.OnProgress == nil {
		return
	}
	g.opts.OnProgress(Progress{Percent: percent, Stage: stage})
}
