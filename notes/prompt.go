package notes

// ToolName is the only tool the model is allowed to call
const ToolName = "formatNotes"

const toolDescription = "Format the notes response"

const systemPrompt = `Take notes on the following scientific paper.
The goal is to be able to create a complete understanding of the paper in a clear manner.

Rules:
- Include specific quotes and details inside your notes.
- Respond with as many notes as it might take to cover the entire paper.
- Go into as much detail as you can whilst keeping the note on a very specific part of the paper.
- Include notes about any results of any experiments the paper describes.
- Include notes about any steps to reproduce the results of the experiments.
- DO NOT respond with notes like: "The author discusses how well XYZ works." Instead, respond with the actual details of XYZ and how it works.

Respond only by calling the formatNotes tool. Each note has two keys: "note" and "pageNumbers".
The "note" key contains the note content and the "pageNumbers" key contains an array of the
page numbers the note is from (more than one if the note spans several pages).`

const userPrefix = "Paper: "

// notesSchema is the tool parameter schema sent to the model.
const notesSchema = `{
  "type": "object",
  "properties": {
    "notes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "note": {
            "type": "string",
            "description": "The note content"
          },
          "pageNumbers": {
            "type": "array",
            "items": {
              "type": "number",
              "description": "The page number"
            }
          }
        }
      }
    }
  },
  "required": ["notes"]
}`

// argumentsSchema validates every tool call's arguments. It is stricter than
// notesSchema: both keys are required and page numbers are non-negative integers.
const argumentsSchema = `{
  "type": "object",
  "properties": {
    "notes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "note": {"type": "string"},
          "pageNumbers": {
            "type": "array",
            "items": {"type": "integer", "minimum": 0}
          }
        },
        "required": ["note", "pageNumbers"],
        "additionalProperties": false
      }
    }
  },
  "required": ["notes"]
}`
