package formatter

import (
	"os"
	"sort"

	"github.com/threaddump-analysis/pkg/model"
	"github.com/threaddump-analysis/pkg/utils"
)

const (
	maxTopItems    = 10
	maxSuggestions = 5
)

// DefaultFormatter is a fallback formatter for unknown data types.
type DefaultFormatter struct{}

// SupportedTypes returns an empty slice as this is a fallback formatter.
func (f *DefaultFormatter) SupportedTypes() []model.AnalysisDataType {
	return nil
}

// Format outputs a generic analysis result to the logger.
func (f *DefaultFormatter) Format(resp *model.AnalysisResponse, log utils.Logger) {
	log.Info("=== Analysis Results ===")
	log.Info("Task UUID:      %s", resp.TaskUUID)
	log.Info("Task Type:      %s", resp.TaskType.String())
	log.Info("Total Records:  %d", resp.TotalRecords)
	log.Info("")

	if resp.Data != nil {
		log.Info("=== Data Summary ===")
		log.Info("  Data Type: %s", resp.Data.Type())
		data := resp.Data.Summary()
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			log.Info("  %s: %v", k, data[k])
		}
		log.Info("")

		printTopItems(resp.Data.TopItems(), log)
	}

	printOutputFiles(resp, log)
	printSuggestions(resp, log)
}

// FormatSummary returns a summary map for serialization.
func (f *DefaultFormatter) FormatSummary(resp *model.AnalysisResponse) map[string]interface{} {
	summary := baseSummary(resp)

	if resp.Data != nil {
		summary["data_type"] = resp.Data.Type()
		summary["data"] = resp.Data.Summary()
		summary["top_items"] = resp.Data.TopItems()
	}

	return summary
}

func baseSummary(resp *model.AnalysisResponse) map[string]interface{} {
	return map[string]interface{}{
		"task_uuid":         resp.TaskUUID,
		"task_type":         resp.TaskType.String(),
		"total_records":     resp.TotalRecords,
		"output_files":      resp.OutputFiles,
		"suggestions_count": len(resp.Suggestions),
	}
}

func printTopItems(items []model.TopItem, log utils.Logger) {
	if len(items) == 0 {
		return
	}
	log.Info("=== Top Items ===")
	for i := 0; i < min(maxTopItems, len(items)); i++ {
		item := items[i]
		log.Info("  %2d. %6.2f%%  %s", i+1, item.Percentage, truncateString(item.Name, 80))
	}
	log.Info("")
}

func printOutputFiles(resp *model.AnalysisResponse, log utils.Logger) {
	if len(resp.OutputFiles) == 0 {
		return
	}
	log.Info("=== Output Files ===")
	for _, file := range resp.OutputFiles {
		log.Info("  %s: %s", file.Name, file.LocalPath)
		if info, err := os.Stat(file.LocalPath); err == nil {
			log.Info("    Size: %d bytes", info.Size())
		}
	}
	log.Info("")
}

func printSuggestions(resp *model.AnalysisResponse, log utils.Logger) {
	if len(resp.Suggestions) == 0 {
		return
	}
	log.Info("=== Suggestions ===")
	for i, sug := range resp.Suggestions {
		if i >= maxSuggestions {
			log.Info("  ... and %d more suggestions", len(resp.Suggestions)-maxSuggestions)
			break
		}
		if sug.Severity != "" {
			log.Info("  - [%s] %s", sug.Severity, truncateString(sug.Suggestion, 100))
		} else {
			log.Info("  - %s", truncateString(sug.Suggestion, 100))
		}
	}
}

// truncateString shortens s to at most maxLen runes, ending with "...".
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
