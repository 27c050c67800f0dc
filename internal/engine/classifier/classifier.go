package classifier

import "github.com/crimson-sun/timber/internal/model"

// Classify maps a trace event name to its task group. It is a total
// function: unrecognized names map to model.GroupOther. No state is read
// or written, so it is safe for concurrent use.
func Classify(name string) model.TaskGroup {
	switch name {
	case "ParseHTML", "ParseAuthorStyleSheet":
		return model.GroupParseHTML

	case "ScheduleStyleRecalculation", "RecalculateStyles", "UpdateLayoutTree",
		"InvalidateLayout", "Layout":
		return model.GroupStyleLayout

	case "Animation", "HitTest", "PaintSetup", "Paint", "PaintImage", "PrePaint",
		"Layerize", "RasterTask", "ScrollLayer", "UpdateLayer", "UpdateLayerTree",
		"CompositeLayers", "Decode Image", "Resize Image":
		return model.GroupPaintCompositeRender

	case "v8.compile", "v8.compileModule", "v8.parseOnBackground",
		"v8.produceCache", "v8.produceModuleCache":
		return model.GroupScriptParseCompile

	case "EventDispatch", "EvaluateScript", "v8.evaluateModule", "FunctionCall",
		"TimerFire", "FireIdleCallback", "FireAnimationFrame", "RunMicrotasks",
		"V8.Execute", "XHRReadyStateChange", "XHRLoad":
		return model.GroupScriptEvaluation

	case "GCEvent", "MinorGC", "MajorGC", "BlinkGC.AtomicPhase",
		"ThreadState::performIdleLazySweep", "ThreadState::completeSweep", "BlinkGCMarking":
		return model.GroupGarbageCollection
	}
	return model.GroupOther
}
