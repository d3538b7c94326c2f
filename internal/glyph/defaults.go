package glyph

// #region default-shapes

// DefaultShapes returns the built-in five-shape table used whenever no shape
// pack is available, so the matcher is always usable.
func DefaultShapes() map[string]Shape {
	return map[string]Shape{
		"APEX": {
			Topic: "initiation",
			Seeds: []string{"apex", "ignite", "ai_infer", "start", "init", "query"},
			Rules: map[string]string{"apex": "tag:initiation"},
		},
		"CORE": {
			Topic: "process",
			Seeds: []string{"core", "resolve", "process", "logic", "reason"},
			Rules: map[string]string{"process": "tag:process.core"},
		},
		"EMIT": {
			Topic: "action",
			Seeds: []string{"emit", "launch", "trigger", "output", "send"},
			Rules: map[string]string{"launch": "tag:action.emit"},
		},
		"ROOT": {
			Topic: "ethics",
			Seeds: []string{"root", "link", "thread", "memory", "ethics", "bind"},
			Rules: map[string]string{"ethics": "tag:ethics.guard"},
		},
		"CUBE": {
			Topic: "stability",
			Seeds: []string{"cube", "resonate", "stabilize", "harmonize", "ground"},
			Rules: map[string]string{"cube": "tag:stability.struct"},
		},
	}
}

// #endregion
