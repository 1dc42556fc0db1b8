// Package trivia 为问答游戏提供选择题。
package trivia

import (
	"context"
	"math/rand/v2"
	"slices"
)

// Question 一道选择题，Answer 是 Options 中正确答案的下标
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   int      `json:"answer"`
}

// Source 批量获取题目
type Source interface {
	Fetch(ctx context.Context, amount int) ([]Question, error)
}

// Fallback 返回本地固定题库的副本
func Fallback() []Question {
	return []Question{
		{Question: "What is the capital of France?", Options: []string{"Madrid", "Paris", "Berlin", "Rome"}, Answer: 1},
		{Question: "How many continents are there?", Options: []string{"5", "6", "7", "8"}, Answer: 2},
		{Question: "What is 12 × 12?", Options: []string{"124", "144", "132", "148"}, Answer: 1},
		{Question: "Who painted the Mona Lisa?", Options: []string{"Michelangelo", "Raphael", "Da Vinci", "Van Gogh"}, Answer: 2},
		{Question: "What does HTML stand for?", Options: []string{"HyperText Markup Language", "High-Tech Modern Language", "HyperTransfer Method Link", "HyperText Modern Layout"}, Answer: 0},
		{Question: "Which planet is closest to the Sun?", Options: []string{"Venus", "Earth", "Mercury", "Mars"}, Answer: 2},
		{Question: "How many sides does a hexagon have?", Options: []string{"5", "6", "7", "8"}, Answer: 1},
	}
}

// shuffleOptions 把正确答案随机插入错误选项中，返回选项和正确答案的下标
func shuffleOptions(r *rand.Rand, correct string, incorrect []string) ([]string, int) {
	opts := append(slices.Clone(incorrect), correct)
	swap := func(i, j int) { opts[i], opts[j] = opts[j], opts[i] }
	if r != nil {
		r.Shuffle(len(opts), swap)
	} else {
		rand.Shuffle(len(opts), swap)
	}
	return opts, slices.Index(opts, correct)
}
