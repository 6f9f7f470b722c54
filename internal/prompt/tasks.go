package prompt

import "github.com/alexanderramin/miru/internal/domain"

// SystemPrompt is sent as the system message whenever a generated prompt is
// executed against a provider.
const SystemPrompt = `あなたは経験豊富な恋愛コーチです。マッチングアプリで出会った相手との関係を進めたいユーザーを支援します。
相手への敬意を忘れず、押し付けがましくない自然な日本語で、すぐに使える具体的な提案をしてください。`

// taskText returns the per-use-case instruction. It may reference view fields.
func taskText(uc domain.UseCase) (string, bool) {
	switch uc {
	case domain.UseCaseFirstMessage:
		return `{{.Nickname}}さんに送る最初のメッセージを3パターン作成してください。
相手のプロフィール（趣味: {{.Hobbies}}、職業: {{.Occupation}}）に触れ、質問で終わる返信しやすい文面にしてください。
それぞれ100文字程度で、丁寧すぎず馴れ馴れしすぎないトーンにしてください。`, true

	case domain.UseCaseConversationTopic:
		return `{{.Nickname}}さんとの会話を盛り上げる話題を5つ提案してください。
共通点になりそうな趣味（{{.Hobbies}}）や、相手のやり取りのスタイル（{{.Style}}）を踏まえ、
各話題について最初の一言の例文を添えてください。`, true

	case domain.UseCaseDateInvitation:
		return `{{.Nickname}}さんを初めてのデートに誘うメッセージを作成してください。
相手の住んでいる地域（{{.Location}}）や趣味（{{.Hobbies}}）に合ったデートプランを1つ提案し、
断りやすさも残した自然な誘い方を2パターン示してください。`, true

	case domain.UseCaseDatePlanning:
		return `{{.Nickname}}さんとのデートの日程と場所を確定させるためのメッセージを作成してください。
候補日を2〜3つ、具体的な集合場所と時間を含めて提案する文面にしてください。
相手の返信速度（{{.ResponseTime}}）を考慮し、返事がしやすい聞き方にしてください。`, true

	case domain.UseCaseDatePreparation:
		return `{{.Nickname}}さんとのデートに向けた準備リストを作成してください。
服装、会話の話題（趣味: {{.Hobbies}}）、当日の流れ、気をつけるべき点をそれぞれ箇条書きでまとめてください。
ユーザーの不安（{{.Concerns}}）があれば、それへの対処法も含めてください。`, true

	case domain.UseCaseFollowUp:
		return `{{.Nickname}}さんとのデート後に送るお礼のメッセージを作成してください。
楽しかった点を具体的に伝え、次に会う約束につながる一文を入れてください。
ユーザーが魅力に感じている点（{{.AttractivePoints}}）をさりげなく反映してください。`, true

	case domain.UseCaseProgressAnalysis:
		return `{{.Nickname}}さんとの関係の現状を分析してください。
ステージ（{{.Stage}}）、連絡頻度（{{.Frequency}}）、最後の連絡（{{.LastContact}}）、ユーザーの期待（{{.Expectation}}）をもとに、
良い兆候・気になる点・今後2週間でできることを整理してください。`, true

	case domain.UseCaseReflection:
		return `{{.Nickname}}さんとの関係を振り返るための問いかけを作成してください。
うまくいったこと、次に活かしたいこと、自分の気持ちの変化について、ユーザーが考えを整理できる質問を5つ挙げてください。
最後に前向きな一言を添えてください。`, true

	case domain.UseCaseRelationshipAdvice:
		return `{{.Nickname}}さんとの関係について、ユーザーから次の相談を受けています。

相談内容: {{.Extra}}

状況を踏まえて、具体的で実行しやすいアドバイスを3つ以内で示してください。`, true
	}
	return "", false
}
