package auth

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
	ErrWeakPassword       = errors.New("password too weak")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrSessionExpired     = errors.New("session expired")
	ErrUnauthenticated    = errors.New("not signed in")
	ErrResetTokenInvalid  = errors.New("password reset token invalid or expired")
)

// GenericMessage is shown when an error has no specific translation.
const GenericMessage = "ネットワークエラーが発生しました"

var messages = []struct {
	err error
	msg string
}{
	{ErrInvalidCredentials, "メールアドレスまたはパスワードが正しくありません"},
	{ErrEmailTaken, "このメールアドレスは既に登録されています"},
	{ErrWeakPassword, "パスワードは8文字以上で入力してください"},
	{ErrInvalidEmail, "有効なメールアドレスを入力してください"},
	{ErrSessionExpired, "セッションの有効期限が切れました。再度ログインしてください"},
	{ErrUnauthenticated, "ログインしてください"},
	{ErrResetTokenInvalid, "パスワードリセットのリンクが無効または期限切れです"},
}

// TranslateError maps an auth error to its Japanese message. Unmapped
// errors surface their raw text, or the generic network message when they
// carry none.
func TranslateError(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	if text := err.Error(); text != "" {
		return text
	}
	return GenericMessage
}
