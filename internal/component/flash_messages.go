package component

import "fmt"

// Message levels, used as CSS classes.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

type Message struct {
	Level string
	Text  string
}

func FlashMessages() Component {
	return Component{
		Name:         "flash_messages",
		TemplateName: "flash_messages.html",
		Context: func(args ...any) (any, error) {
			if len(args) != 1 {
				return nil, fmt.Errorf("want 1 argument, got %d", len(args))
			}
			if args[0] == nil {
				return map[string]any{"messages": []Message(nil)}, nil
			}
			messages, ok := args[0].([]Message)
			if !ok {
				return nil, fmt.Errorf("want []Message, got %T", args[0])
			}
			return map[string]any{"messages": messages}, nil
		},
	}
}
