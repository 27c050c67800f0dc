package taxonomy

import "github.com/crimson-sun/timber/internal/model"

// DefaultGroups returns the built-in task group catalog. The event lists
// mirror the classifier's lookup; TestCatalogMatchesClassifier keeps them in sync.
func DefaultGroups() []model.GroupInfo {
	return []model.GroupInfo{
		{
			ID:    model.GroupParseHTML,
			Label: "Parse HTML & CSS",
			Desc:  "Tokenizing and parsing markup and author style sheets",
			Events: []string{
				"ParseHTML",
				"ParseAuthorStyleSheet",
			},
		},
		{
			ID:    model.GroupStyleLayout,
			Label: "Style & Layout",
			Desc:  "Style recalculation and layout tree construction",
			Events: []string{
				"ScheduleStyleRecalculation",
				"RecalculateStyles",
				"UpdateLayoutTree",
				"InvalidateLayout",
				"Layout",
			},
		},
		{
			ID:    model.GroupPaintCompositeRender,
			Label: "Rendering",
			Desc:  "Painting, rasterization and compositing",
			Events: []string{
				"Animation",
				"HitTest",
				"PaintSetup",
				"Paint",
				"PaintImage",
				"PrePaint",
				"Layerize",
				"RasterTask",
				"ScrollLayer",
				"UpdateLayer",
				"UpdateLayerTree",
				"CompositeLayers",
				"Decode Image",
				"Resize Image",
			},
		},
		{
			ID:    model.GroupScriptParseCompile,
			Label: "Script Parsing & Compilation",
			Desc:  "V8 parsing and compilation of scripts and modules",
			Events: []string{
				"v8.compile",
				"v8.compileModule",
				"v8.parseOnBackground",
				"v8.produceCache",
				"v8.produceModuleCache",
			},
		},
		{
			ID:    model.GroupScriptEvaluation,
			Label: "Script Evaluation",
			Desc:  "Running JavaScript, event handlers and callbacks",
			Events: []string{
				"EventDispatch",
				"EvaluateScript",
				"v8.evaluateModule",
				"FunctionCall",
				"TimerFire",
				"FireIdleCallback",
				"FireAnimationFrame",
				"RunMicrotasks",
				"V8.Execute",
				"XHRReadyStateChange",
				"XHRLoad",
			},
		},
		{
			ID:    model.GroupGarbageCollection,
			Label: "Garbage Collection",
			Desc:  "V8 and Blink heap collection",
			Events: []string{
				"GCEvent",
				"MinorGC",
				"MajorGC",
				"BlinkGC.AtomicPhase",
				"ThreadState::performIdleLazySweep",
				"ThreadState::completeSweep",
				"BlinkGCMarking",
			},
		},
		{
			ID:    model.GroupOther,
			Label: "Other",
			Desc:  "Scheduler bookkeeping and anything unrecognized",
			Events: []string{
				"RunTask",
				"ThreadControllerImpl::RunTask",
				"MessageLoop::RunTask",
				"TaskQueueManager::ProcessTaskFromWorkQueue",
			},
		},
	}
}
