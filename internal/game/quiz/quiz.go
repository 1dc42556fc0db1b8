// Package quiz 知识问答：每位玩家回答每道题，答对得 100 分，总分最高者获胜。
package quiz

import (
	"slices"

	"github.com/palemoky/partyhub/internal/apperrors"
	"github.com/palemoky/partyhub/internal/game"
	"github.com/palemoky/partyhub/internal/trivia"
)

// PointsPerAnswer 每答对一题的得分
const PointsPerAnswer = 100

// Engine 问答状态机
type Engine struct {
	players   []string
	questions []trivia.Question
	current   int
	answers   map[string]int
	scores    map[string]int
	finished  bool
}

// View 发送给客户端的问答状态
type View struct {
	Questions        []QuestionView `json:"questions"`
	CurrentQuestion  int            `json:"currentQuestion"`
	AnswersThisRound map[string]int `json:"answersThisRound"`
	Scores           map[string]int `json:"scores"`
}

// QuestionView 客户端看到的题目。题目计分之后才带上 Answer
type QuestionView struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   *int     `json:"answer,omitempty"`
}

// New 用给定题目开局，没有题目时使用本地题库
func New(players []game.Player, env game.Env) (game.Engine, error) {
	questions := env.Questions
	if len(questions) == 0 {
		questions = trivia.Fallback()
	}

	e := &Engine{
		players:   game.IDs(players),
		questions: questions,
		answers:   make(map[string]int),
		scores:    make(map[string]int, len(players)),
	}
	for _, p := range players {
		e.scores[p.ID] = 0
	}
	return e, nil
}

func (e *Engine) Apply(playerID string, action game.Action) (game.Outcome, error) {
	a, ok := action.(game.SubmitAnswer)
	if !ok {
		return game.Outcome{}, apperrors.ErrInvalidAction
	}
	if e.finished {
		return game.Outcome{}, apperrors.ErrGameNotPlaying
	}
	if !slices.Contains(e.players, playerID) {
		return game.Outcome{}, apperrors.ErrNotInRoom
	}
	if a.Index < 0 || a.Index >= len(e.questions[e.current].Options) {
		return game.Outcome{}, apperrors.Invalid("answer %d out of range", a.Index)
	}

	// 同一轮内重复提交会覆盖之前的答案
	e.answers[playerID] = a.Index
	return e.closeRound(), nil
}

// closeRound 当前所有玩家都已作答时计分并进入下一题
func (e *Engine) closeRound() game.Outcome {
	if len(e.players) == 0 || len(e.answers) < len(e.players) {
		return game.Outcome{}
	}

	correct := e.questions[e.current].Answer
	for id, idx := range e.answers {
		if idx == correct {
			e.scores[id] += PointsPerAnswer
		}
	}

	if e.current < len(e.questions)-1 {
		e.current++
		e.answers = make(map[string]int)
		return game.Outcome{}
	}

	e.finished = true
	return game.Finish(e.leaders()...)
}

// leaders 返回并列最高分的所有玩家，不打破平局
func (e *Engine) leaders() []string {
	best := -1
	var ids []string
	for _, id := range e.players {
		switch s := e.scores[id]; {
		case s > best:
			best = s
			ids = []string{id}
		case s == best:
			ids = append(ids, id)
		}
	}
	return ids
}

func (e *Engine) RemovePlayer(playerID string) game.Outcome {
	if !slices.Contains(e.players, playerID) {
		return game.Outcome{}
	}
	e.players = game.Without(e.players, playerID)
	delete(e.answers, playerID)
	delete(e.scores, playerID)

	if e.finished {
		return game.Outcome{}
	}
	// 离开的玩家可能正是本轮最后一个未作答的人
	return e.closeRound()
}

func (e *Engine) View(string) any {
	answers := make(map[string]int, len(e.answers))
	for k, v := range e.answers {
		answers[k] = v
	}
	questions := make([]QuestionView, len(e.questions))
	for i, q := range e.questions {
		questions[i] = QuestionView{Question: q.Question, Options: q.Options}
		if i < e.current || e.finished {
			questions[i].Answer = &q.Answer
		}
	}
	return View{
		Questions:        questions,
		CurrentQuestion:  e.current,
		AnswersThisRound: answers,
		Scores:           e.Scores(),
	}
}

// Scores 返回累计分数的副本
func (e *Engine) Scores() map[string]int {
	scores := make(map[string]int, len(e.scores))
	for k, v := range e.scores {
		scores[k] = v
	}
	return scores
}
