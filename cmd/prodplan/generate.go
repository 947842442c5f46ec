package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"prodplan/internal/model"
	"prodplan/internal/schedule"
	"prodplan/internal/workbook"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		input       string
		actuals     string
		output      string
		noDashboard bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a production plan workbook from a project file",
		Example: `  prodplan generate --input line1.yaml
  prodplan generate --input line1.json --actuals week2.json --output plan.xlsx
  prodplan generate --input line1.yaml --output - > plan.xlsx`,
		RunE: func(cmd *cobra.Command, args []string) error {
			project, err := readProject(input)
			if err != nil {
				return err
			}
			if actuals != "" {
				uploaded, err := readActuals(actuals)
				if err != nil {
					return err
				}
				project.ActualData = schedule.MergeActuals(project.ActualData, uploaded)
			}

			opts := a.generatorOptions()
			if noDashboard {
				opts.IncludeDashboard = false
			}
			res, err := workbook.NewGenerator(opts).Generate(project)
			if err != nil {
				return err
			}

			if output == "-" {
				_, err = cmd.OutOrStdout().Write(res.Data)
				return err
			}
			path := resolveOutput(output, res.FileName)
			if err := os.WriteFile(path, res.Data, 0o644); err != nil {
				return fmt.Errorf("writing workbook: %w", err)
			}
			a.logger.Info("工作簿已生成",
				"path", path,
				"rows", res.Summary.Rows,
				"days", res.Summary.Days,
				"matched", res.Summary.MatchedActuals)
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "项目定义文件 (.json / .yaml)")
	cmd.Flags().StringVar(&actuals, "actuals", "", "追加上传的实际产量文件 (.json / .yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "输出路径；目录或文件，\"-\" 表示标准输出")
	cmd.Flags().BoolVar(&noDashboard, "no-dashboard", false, "不生成 Dashboard 工作表")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// resolveOutput 输出为空时写入当前目录，输出为已存在目录时在目录下使用默认文件名
func resolveOutput(output, fileName string) string {
	if output == "" {
		return fileName
	}
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		return filepath.Join(output, fileName)
	}
	return output
}

func readProject(path string) (*model.ProjectData, error) {
	var p model.ProjectData
	if err := decodeFile(path, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// readActuals 接受数组，或 {actualData: [...]} 形式
func readActuals(path string) ([]model.ActualDataItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var items []model.ActualDataItem
	if err := decode(path, data, &items); err == nil {
		return items, nil
	}
	var wrapped struct {
		ActualData []model.ActualDataItem `json:"actualData" yaml:"actualData"`
	}
	if err := decode(path, data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.ActualData, nil
}

func decodeFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	return decode(path, data, v)
}

func decode(path string, data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return fmt.Errorf("parsing %s: empty document", path)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, v); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
	}
	return nil
}
