// Package timber reconstructs the main-thread task tree of a Chrome
// performance trace.
//
// Quick start:
//
//	t, err := timber.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	data, _ := os.ReadFile("trace.json")
//	res, err := t.TasksFromJSON(data)
//	if err != nil {
//	    log.Fatal(err) // errors.Is(err, timber.ErrNoMainThread), ...
//	}
//	for _, task := range res.Tasks {
//	    fmt.Println(task.Name, task.Group, task.SelfTime)
//	}
//
// A Timber is safe for concurrent use.
package timber
