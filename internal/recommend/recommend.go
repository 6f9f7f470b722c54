// Package recommend derives the next action for each connection from its
// stage and ranks them for the dashboard.
package recommend

import (
	"sort"
	"strings"

	"github.com/alexanderramin/miru/internal/domain"
)

// MaxBatch is the number of actions Batch returns at most.
const MaxBatch = 5

type template struct {
	title         string
	description   string
	urgency       domain.Urgency
	estimatedTime string
	promptType    domain.UseCase
}

var table = map[domain.Stage]template{
	domain.StageJustMatched: {
		title:         "{nickname}さんに最初のメッセージを送る",
		description:   "プロフィールを参考に、相手が返信しやすい最初のメッセージを送りましょう。",
		urgency:       domain.UrgencyHigh,
		estimatedTime: "5分",
		promptType:    domain.UseCaseFirstMessage,
	},
	domain.StageMessaging: {
		title:         "{nickname}さんとの会話を盛り上げる",
		description:   "共通の話題を見つけて、会話を深めましょう。",
		urgency:       domain.UrgencyMedium,
		estimatedTime: "10分",
		promptType:    domain.UseCaseConversationTopic,
	},
	domain.StageLineExchanged: {
		title:         "{nickname}さんをデートに誘う",
		description:   "やり取りが続いているうちに、気軽なデートに誘ってみましょう。",
		urgency:       domain.UrgencyHigh,
		estimatedTime: "10分",
		promptType:    domain.UseCaseDateInvitation,
	},
	domain.StageDateArranging: {
		title:         "{nickname}さんとのデート日程を確定する",
		description:   "候補日と場所を具体的に提案して、予定を確定させましょう。",
		urgency:       domain.UrgencyCritical,
		estimatedTime: "5分",
		promptType:    domain.UseCaseDatePlanning,
	},
	domain.StageBeforeDate: {
		title:         "{nickname}さんとのデートの準備をする",
		description:   "服装や話題、当日の流れを確認しておきましょう。",
		urgency:       domain.UrgencyHigh,
		estimatedTime: "15分",
		promptType:    domain.UseCaseDatePreparation,
	},
	domain.StageAfterDate: {
		title:         "{nickname}さんにお礼のメッセージを送る",
		description:   "デートの感想とお礼を早めに伝えて、次につなげましょう。",
		urgency:       domain.UrgencyCritical,
		estimatedTime: "5分",
		promptType:    domain.UseCaseFollowUp,
	},
	domain.StageDating: {
		title:         "{nickname}さんとの関係を振り返る",
		description:   "これまでの関係を振り返り、今後について考えましょう。",
		urgency:       domain.UrgencyLow,
		estimatedTime: "15分",
		promptType:    domain.UseCaseProgressAnalysis,
	},
	domain.StageEnded: {
		title:         "{nickname}さんとの経験を振り返る",
		description:   "うまくいった点と次に活かせる点を整理しましょう。",
		urgency:       domain.UrgencyLow,
		estimatedTime: "10分",
		promptType:    domain.UseCaseReflection,
	},
}

// ForConnection returns the action for c's current stage. ok is false when
// the stage is not one of the known stages.
func ForConnection(c *domain.Connection) (domain.RecommendedAction, bool) {
	tpl, ok := table[c.CurrentStage]
	if !ok {
		return domain.RecommendedAction{}, false
	}
	return domain.RecommendedAction{
		ConnectionID:  c.ID,
		Nickname:      c.Nickname,
		Stage:         c.CurrentStage,
		Title:         strings.ReplaceAll(tpl.title, "{nickname}", c.Nickname),
		Description:   tpl.description,
		Urgency:       tpl.urgency,
		EstimatedTime: tpl.estimatedTime,
		PromptType:    tpl.promptType,
	}, true
}

// Batch builds actions for every non-terminal connection, orders them by
// urgency (ties keep input order) and returns at most MaxBatch. scores maps
// connection ID to hope score and may be nil.
func Batch(conns []*domain.Connection, scores map[string]int) []domain.RecommendedAction {
	actions := make([]domain.RecommendedAction, 0, len(conns))
	for _, c := range conns {
		if c.CurrentStage.IsTerminal() {
			continue
		}
		a, ok := ForConnection(c)
		if !ok {
			continue
		}
		a.HopeScore = scores[c.ID]
		actions = append(actions, a)
	}

	sort.SliceStable(actions, func(i, j int) bool {
		return actions[i].Urgency.Priority() > actions[j].Urgency.Priority()
	})

	if len(actions) > MaxBatch {
		actions = actions[:MaxBatch]
	}
	return actions
}
