package anthropic

import (
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	ai "github.com/spetersoncode/relay"
)

// jsonResponseToolName is the synthetic tool used for JSON mode.
const jsonResponseToolName = "__relay_json_response__"

func convertTools(tools []ai.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var schema map[string]any
		if len(t.Parameters) > 0 {
			_ = json.Unmarshal(t.Parameters, &schema)
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: inputSchema(schema),
			},
		}
	}
	return result
}

func inputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	var required []string
	if reqVal, ok := schema["required"].([]any); ok {
		for _, r := range reqVal {
			if s, ok := r.(string); ok {
				required = append(required, s)
			}
		}
	}
	return anthropic.ToolInputSchemaParam{
		Properties: schema["properties"],
		Required:   required,
	}
}

func convertToolChoice(choice ai.ToolChoice) anthropic.ToolChoiceUnionParam {
	switch choice {
	case ai.ToolChoiceNone:
		return anthropic.ToolChoiceUnionParam{OfNone: &anthropic.ToolChoiceNoneParam{}}
	case ai.ToolChoiceRequired:
		return anthropic.ToolChoiceUnionParam{OfAny: &anthropic.ToolChoiceAnyParam{}}
	default:
		return anthropic.ToolChoiceUnionParam{OfAuto: &anthropic.ToolChoiceAutoParam{}}
	}
}

func buildJSONTool() (anthropic.ToolUnionParam, anthropic.ToolChoiceUnionParam) {
	tool := anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        jsonResponseToolName,
			Description: anthropic.String("Output the response as structured JSON"),
			InputSchema: anthropic.ToolInputSchemaParam{},
		},
	}
	choice := anthropic.ToolChoiceUnionParam{
		OfTool: &anthropic.ToolChoiceToolParam{Name: jsonResponseToolName},
	}
	return tool, choice
}
