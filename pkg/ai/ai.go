package ai

type AiInterface interface {
	Name() string
	HandleText(string) (string, error)
}
