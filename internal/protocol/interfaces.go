package protocol

// Event names shared by client and target.
const (
	EventWindow         = "window"
	EventClose          = "close"
	EventPage           = "page"
	EventPreviewUpdated = "previewUpdated"
)

var evaluateParams = Fields{
	{Name: "expression", Kind: FieldString},
	{Name: "isFunction", Kind: FieldBool, Optional: true},
	{Name: "arg", Kind: FieldArgument},
}

func init() {
	register(&Interface{
		Type: TypeRoot,
		Methods: map[string]Method{
			"initialize": {
				Name:   "initialize",
				Params: Fields{{Name: "sdkLanguage", Kind: FieldString, Optional: true}},
				Result: Fields{{Name: "electron", Kind: FieldObject}},
			},
		},
	})

	register(&Interface{
		Type: TypeElectron,
		Methods: map[string]Method{
			"launch": {
				Name: "launch",
				Params: Fields{
					{Name: "executablePath", Kind: FieldString},
					{Name: "args", Kind: FieldStringList, Optional: true},
					{Name: "cwd", Kind: FieldString, Optional: true},
					{Name: "env", Kind: FieldStringMap, Optional: true},
					{Name: "timeout", Kind: FieldNumber, Optional: true},
				},
				Result: Fields{{Name: "electronApplication", Kind: FieldObject}},
			},
		},
	})

	register(&Interface{
		Type:        TypeElectronApplication,
		Initializer: Fields{{Name: "context", Kind: FieldObject}},
		Methods: map[string]Method{
			"newBrowserWindow": {
				Name:   "newBrowserWindow",
				Params: Fields{{Name: "arg", Kind: FieldArgument}},
				Result: Fields{{Name: "page", Kind: FieldObject}},
			},
			"evaluateExpression": {
				Name:   "evaluateExpression",
				Params: evaluateParams,
				Result: Fields{{Name: "value", Kind: FieldValue}},
			},
			"evaluateExpressionHandle": {
				Name:   "evaluateExpressionHandle",
				Params: evaluateParams,
				Result: Fields{{Name: "handle", Kind: FieldObject}},
			},
			"close": {Name: "close"},
		},
		Events: map[string]Event{
			EventWindow: {Name: EventWindow, Params: Fields{{Name: "page", Kind: FieldObject}}},
			EventClose:  {Name: EventClose},
		},
	})

	register(&Interface{
		Type: TypeBrowserContext,
		Methods: map[string]Method{
			"close": {Name: "close"},
		},
		Events: map[string]Event{
			EventPage:  {Name: EventPage, Params: Fields{{Name: "page", Kind: FieldObject}}},
			EventClose: {Name: EventClose},
		},
	})

	register(&Interface{
		Type: TypePage,
		Initializer: Fields{
			{Name: "url", Kind: FieldString},
			{Name: "title", Kind: FieldString, Optional: true},
		},
		Methods: map[string]Method{
			"title": {Name: "title", Result: Fields{{Name: "value", Kind: FieldString}}},
			"close": {Name: "close"},
		},
		Events: map[string]Event{
			EventClose: {Name: EventClose},
		},
	})

	register(&Interface{
		Type:        TypeJSHandle,
		Initializer: Fields{{Name: "preview", Kind: FieldString}},
		Methods: map[string]Method{
			"evaluateExpression": {
				Name:   "evaluateExpression",
				Params: evaluateParams,
				Result: Fields{{Name: "value", Kind: FieldValue}},
			},
			"evaluateExpressionHandle": {
				Name:   "evaluateExpressionHandle",
				Params: evaluateParams,
				Result: Fields{{Name: "handle", Kind: FieldObject}},
			},
			"getProperty": {
				Name:   "getProperty",
				Params: Fields{{Name: "name", Kind: FieldString}},
				Result: Fields{{Name: "handle", Kind: FieldObject}},
			},
			"jsonValue": {Name: "jsonValue", Result: Fields{{Name: "value", Kind: FieldValue}}},
			"dispose":   {Name: "dispose"},
		},
		Events: map[string]Event{
			EventPreviewUpdated: {Name: EventPreviewUpdated, Params: Fields{{Name: "preview", Kind: FieldString}}},
		},
	})
}
