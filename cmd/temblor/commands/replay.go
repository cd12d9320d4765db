package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/replay"
)

var (
	replayCasesPath  string
	replayOutputPath string
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run retrospective replay evaluation",
	Long: `Replay historical cases phase by phase against a leave-one-out
memory and log system output next to the historical ground truth. The
cases file is a JSON array of {"case_study_id": "...", "data": {...}}
objects; output is JSONL, one phase log per line.`,
	Run: runReplay,
}

func init() {
	replayCmd.Flags().StringVar(&replayCasesPath, "cases", "", "Path to the JSON file of structured cases (required)")
	replayCmd.Flags().StringVar(&replayOutputPath, "output", "replay_logs.jsonl", "Path to write phase logs as JSONL")
	_ = replayCmd.MarkFlagRequired("cases")
}

type replayCase struct {
	CaseStudyID string         `json:"case_study_id"`
	Data        map[string]any `json:"data"`
}

func runReplay(cmd *cobra.Command, args []string) {
	HandleError(setupLog(logLevelFlags), "Failed to initialize logging")
	logger := logging.GetLogger("main")

	raw, err := os.ReadFile(replayCasesPath)
	HandleError(err, "Failed to read cases file")
	var cases []replayCase
	HandleError(json.Unmarshal(raw, &cases), "Failed to parse cases file")
	if len(cases) == 0 {
		HandleError(fmt.Errorf("no cases in %s", replayCasesPath), "Nothing to replay")
	}

	evaluator := replay.NewEvaluator()

	// Precompute each case's memory contribution once.
	unitsByCase := make(map[string][]memory.ExperienceUnit, len(cases))
	for _, c := range cases {
		unitsByCase[c.CaseStudyID] = evaluator.UnitsFromCase(c.CaseStudyID, c.Data)
	}

	out, err := os.Create(replayOutputPath)
	HandleError(err, "Failed to create output file")
	defer out.Close()
	encoder := json.NewEncoder(out)

	var totalPhases int
	for _, c := range cases {
		// Leave-one-out: the replayed case never informs its own answers.
		// Iterate in file order so candidate order stays deterministic.
		var historical []memory.ExperienceUnit
		for _, other := range cases {
			if other.CaseStudyID != c.CaseStudyID {
				historical = append(historical, unitsByCase[other.CaseStudyID]...)
			}
		}

		logs := evaluator.ReplayCase(c.Data, historical)
		for _, phaseLog := range logs {
			HandleError(encoder.Encode(phaseLog), "Failed to write phase log")
		}
		totalPhases += len(logs)
		logger.Info("replayed case %s (%d phases)", c.CaseStudyID, len(logs))
	}

	logger.Info("replay complete: %d cases, %d phase logs written to %s",
		len(cases), totalPhases, replayOutputPath)
}
