package llm

import (
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
	"github.com/ppiankov/claimtriage/internal/model"
)

// SystemPrompt frames the model as a claim analyst returning JSON only
const SystemPrompt = `You are an expert in cognitive analysis of insurance claims.
Your role is to extract and structure the information contained in a claim declaration.
Be precise and factual, and keep facts apart from assumptions.
Declarations may be in French, Arabic or Moroccan Darija.
Answer ONLY with valid JSON, without markdown or any additional text.`

// BuildPrompt constructs the default extraction prompt for a narrative
func BuildPrompt(text string) string {
	return fmt.Sprintf(`Analyze the following claim declaration and extract structured information.

DECLARATION:
%s

Return a JSON object with:
- claim_type: claim category (auto, home, health, life, liability, travel, unknown)
- confidence: confidence level (0-1)
- date_incident: date mentioned, empty if none
- location: incident location, empty if none
- parties: people or entities involved, each with name, role and involvement
- damages: description of the damages
- documents_mentioned: documents referred to
- facts: sentences of the declaration stated as certain
- assumptions: sentences of the declaration stated with hedging
- missing_info: critical missing information
- ambiguities: unclear points, each with category, description, severity (1-5) and impact
- emotional_level: emotional level (0-10)

Copy facts and assumptions verbatim from the declaration; a sentence belongs to at most one of the two lists.`, text)
}

var (
	schemaOnce sync.Once
	schemaJSON json.RawMessage
	schemaErr  error
)

// StructureSchema returns the JSON schema of model.RawStructure in the strict form
// structured-output APIs expect (no additional properties, every property required).
func StructureSchema() (json.RawMessage, error) {
	schemaOnce.Do(func() {
		reflector := jsonschema.Reflector{
			AllowAdditionalProperties:  false,
			DoNotReference:             true,
			RequiredFromJSONSchemaTags: true,
		}
		schema := reflector.Reflect(&model.RawStructure{})

		b, err := schema.MarshalJSON()
		if err != nil {
			schemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		var m map[string]interface{}
		if err := json.Unmarshal(b, &m); err != nil {
			schemaErr = fmt.Errorf("decode schema: %w", err)
			return
		}
		delete(m, "$schema")
		delete(m, "$id")
		strictify(m)

		schemaJSON, schemaErr = json.Marshal(m)
	})
	return schemaJSON, schemaErr
}

// strictify marks every object closed and every property required, recursively
func strictify(schema map[string]interface{}) {
	if t, ok := schema["type"].(string); ok && t == "object" {
		schema["additionalProperties"] = false
		if props, ok := schema["properties"].(map[string]interface{}); ok {
			required := make([]string, 0, len(props))
			for name := range props {
				required = append(required, name)
			}
			sort.Strings(required)
			schema["required"] = required
		}
	}
	if props, ok := schema["properties"].(map[string]interface{}); ok {
		for _, p := range props {
			if pm, ok := p.(map[string]interface{}); ok {
				strictify(pm)
			}
		}
	}
	if items, ok := schema["items"].(map[string]interface{}); ok {
		strictify(items)
	}
}
