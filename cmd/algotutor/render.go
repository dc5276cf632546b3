package main

import (
	"fmt"
	"io"
	"strings"

	"algotutor/internal/app/tracker"
	"algotutor/internal/domain/model"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
)

func levelLabel(l model.QuestionLevel) string {
	switch l {
	case model.LevelEasy:
		return green(string(l))
	case model.LevelMedium:
		return yellow(string(l))
	case model.LevelHard:
		return red(string(l))
	}
	return string(l)
}

func renderQuestionList(w io.Writer, qs []model.Question) {
	if len(qs) == 0 {
		fmt.Fprintln(w, "no questions")
		return
	}
	for _, q := range qs {
		fmt.Fprintf(w, "%-40s %-8s %s\n", q.TitleSlug, levelLabel(q.Level), q.Title)
	}
}

func renderQuestion(w io.Writer, q *model.Question, lang string) {
	fmt.Fprintf(w, "%s  [%s]  id=%s\n", bold(q.Title), levelLabel(q.Level), q.ID)
	if len(q.Topics) > 0 {
		fmt.Fprintf(w, "topics: %s\n", strings.Join(q.Topics, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, q.Content)
	for i, tc := range q.TestCases {
		fmt.Fprintf(w, "\nexample %d\n  input:    %s\n  expected: %s\n", i+1, tc.Input, tc.ExpectedOutput)
	}
	if lang == "" {
		return
	}
	if s, ok := q.Snippet(lang); ok {
		fmt.Fprintf(w, "\n%s\n%s\n", faint("// "+s.Lang), s.Code)
	} else {
		fmt.Fprintf(w, "\nno starter code for %s\n", lang)
	}
}

func progressPrinter(w io.Writer) tracker.Observer {
	return tracker.ObserverFunc(func(e tracker.Event) {
		switch e.State {
		case tracker.StateSubmitting:
			fmt.Fprintln(w, faint("submitting..."))
		case tracker.StatePolling:
			tag := ""
			if e.Status != nil {
				tag = string(e.Status.Status)
			}
			fmt.Fprintf(w, "%s %s\n", faint(e.SubmissionID), tag)
		}
	})
}

func renderResult(w io.Writer, st *model.SubmissionStatus) {
	verdict := yellow(string(st.Status))
	switch {
	case st.AllPassed():
		verdict = green("accepted")
	case st.Status == model.StatusError:
		verdict = red("error")
	case st.Status == model.StatusCompleted:
		verdict = red("wrong answer")
	}

	fmt.Fprintf(w, "%s  %d/%d passed  %.2fms  %.2fMB\n", verdict, st.TotalPassed, st.TotalTests, st.ExecutionTime, st.MemoryUsed)
	if st.Message != "" {
		fmt.Fprintln(w, st.Message)
	}
	if msg := st.ErrorText(); msg != "" {
		fmt.Fprintln(w, red(msg))
	}
	for i, r := range st.Results {
		mark := green("✓")
		if !r.Passed {
			mark = red("✗")
		}
		fmt.Fprintf(w, "  %s test %d  %.2fms\n", mark, i+1, r.ExecutionTime)
		if r.Error != nil && *r.Error != "" {
			fmt.Fprintf(w, "      %s\n", red(*r.Error))
		}
	}
	if st.Input != nil && !st.AllPassed() {
		fmt.Fprintf(w, "input:    %s\n", *st.Input)
		if st.ExpectedOutput != nil {
			fmt.Fprintf(w, "expected: %s\n", *st.ExpectedOutput)
		}
		if st.OutputValue != nil {
			fmt.Fprintf(w, "output:   %s\n", *st.OutputValue)
		}
	}
}

func renderIdentity(w io.Writer, id model.Identity) {
	if !id.IsSet {
		fmt.Fprintln(w, "no username set")
		return
	}
	state := "not logged in"
	if id.IsLogged {
		state = green("logged in")
	}
	fmt.Fprintf(w, "%s (%s)\n", bold(id.Username), state)
}

func renderVoice(w io.Writer, serviceURL, name, room, token string) {
	fmt.Fprintf(w, "url:         %s\n", serviceURL)
	fmt.Fprintf(w, "room:        %s\n", room)
	fmt.Fprintf(w, "participant: %s\n", name)
	fmt.Fprintf(w, "token:       %s\n", token)
}
