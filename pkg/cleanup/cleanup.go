package cleanup

import "log/slog"

type Job struct {
	Name string
	F    func() error
}

var (
	jobs []*Job
)

func Register(j *Job) {
	jobs = append(jobs, j)
}

func CleanUp() {
	for _, j := range jobs {
		slog.Info("cleanup job started", slog.String("name", j.Name))
		err := j.F()
		if err != nil {
			slog.Error("cleanup job finished with error", slog.String("name", j.Name), slog.String("error", err.Error()))
		} else {
			slog.Info("cleaned", slog.String("name", j.Name))
		}
	}
}
