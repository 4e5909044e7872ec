// Package actions builds and dispatches actions from declared creator
// methods.
//
// A creator set has one ActionSource shared by all of its actions and a table
// of methods. Each method names the action type it produces and, optionally,
// a CUE schema the payload must satisfy:
//
//	todo, err := actions.New(d, actions.CreatorConfig{
//		DisplayName:  "TodoActions",
//		ActionSource: "VIEW_ACTION",
//		Methods: map[string]actions.MethodSpec{
//			"add":   {ActionType: "TODO_ADD", PayloadType: `{title: string & != ""}`},
//			"clear": {ActionType: "TODO_CLEAR"},
//		},
//	})
//	err = todo.Call("add", map[string]any{"title": "milk"})
//
// Payloads are frozen before validation, so the schema sees exactly what
// stores will receive.
package actions
