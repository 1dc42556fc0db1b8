package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultOpenTDBURL Open Trivia DB 公共接口
const DefaultOpenTDBURL = "https://opentdb.com/api.php"

// OpenTDB 从兼容 Open Trivia DB 的接口获取题目
type OpenTDB struct {
	BaseURL string
	Client  *http.Client
	Rand    *rand.Rand
}

type openTDBResponse struct {
	ResponseCode int `json:"response_code"`
	Results      []struct {
		Question         string   `json:"question"`
		CorrectAnswer    string   `json:"correct_answer"`
		IncorrectAnswers []string `json:"incorrect_answers"`
	} `json:"results"`
}

// NewOpenTDB 用给定接口地址和请求超时创建题库来源
func NewOpenTDB(baseURL string, timeout time.Duration, r *rand.Rand) *OpenTDB {
	if baseURL == "" {
		baseURL = DefaultOpenTDBURL
	}
	return &OpenTDB{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		Rand:    r,
	}
}

// Fetch 请求 amount 道选择题并解码 HTML 实体
func (o *OpenTDB) Fetch(ctx context.Context, amount int) ([]Question, error) {
	u, err := url.Parse(o.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse trivia url: %w", err)
	}
	q := u.Query()
	q.Set("amount", strconv.Itoa(amount))
	q.Set("type", "multiple")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build trivia request: %w", err)
	}

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch trivia: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch trivia: unexpected status %d", resp.StatusCode)
	}

	var body openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode trivia response: %w", err)
	}
	if body.ResponseCode != 0 {
		return nil, fmt.Errorf("trivia api error %d", body.ResponseCode)
	}
	if len(body.Results) == 0 {
		return nil, fmt.Errorf("trivia api returned no questions")
	}

	questions := make([]Question, 0, len(body.Results))
	for _, r := range body.Results {
		incorrect := make([]string, len(r.IncorrectAnswers))
		for i, a := range r.IncorrectAnswers {
			incorrect[i] = html.UnescapeString(a)
		}
		opts, answer := shuffleOptions(o.Rand, html.UnescapeString(r.CorrectAnswer), incorrect)
		questions = append(questions, Question{
			Question: html.UnescapeString(r.Question),
			Options:  opts,
			Answer:   answer,
		})
	}
	return questions, nil
}
