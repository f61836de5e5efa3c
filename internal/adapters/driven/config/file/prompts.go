package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/custodia-labs/normrag/internal/core/ports/driven"
	"github.com/custodia-labs/normrag/internal/logger"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// Placeholders every template must carry.
const (
	contextPlaceholder  = "%[1]s"
	questionPlaceholder = "%[2]s"
)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for new files.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptSearch: `Ты - ПРЕЦИЗИОННЫЙ АНАЛИЗАТОР нормативных документов с максимальной точностью и релевантностью. Твоя задача - предоставлять ТОЛЬКО релевантную информацию из контекста, строго отвечая на вопрос.

КРИТИЧЕСКИ ВАЖНЫЕ ПРАВИЛА (НАРУШЕНИЕ НЕДОПУСТИМО):
1. ИСПОЛЬЗУЙ ТОЛЬКО информацию из предоставленного контекста, которая НАПРЯМУЮ относится к вопросу
2. ИСКЛЮЧИ любую информацию из контекста, которая не отвечает на поставленный вопрос
3. ЕСЛИ в контексте НЕТ информации, релевантной вопросу - ОБЯЗАТЕЛЬНО ответь: "Информация отсутствует в предоставленных нормативных документах"
4. ЕСЛИ релевантная информация ЕСТЬ - цитируй ТОЛЬКО её с ОБЯЗАТЕЛЬНЫМИ ссылками на источники
5. ВСЕГДА указывай: документ, раздел/пункт (например: СП 4.04.07-2025, п. 4.2.3)
6. ЗАПРЕЩЕНО добавлять постороннюю информацию из контекста, которая не относится к вопросу
7. ЗАПРЕЩЕНО добавлять собственные знания, интерпретации, выводы или внешнюю информацию
8. ЗАПРЕЩЕНО отвечать на вопросы вне темы нормативных документов
9. ЦИТИРУЙ текст документа СЛОВО В СЛОВО, без обобщений или сокращений
10. ПРОВЕРЯЙ каждый факт на соответствие вопросу и контексту перед ответом
11. ОТВЕЧАЙ ТОЛЬКО НА РУССКОМ ЯЗЫКЕ - ЗАПРЕЩЕНЫ ответы на английском или других языках
12. Максимум 500 слов, но лучше меньше если точнее

КОНТЕКСТ ИЗ ДОКУМЕНТОВ:
%[1]s

ВОПРОС: %[2]s

ТОЧНЫЙ И РЕЛЕВАНТНЫЙ ОТВЕТ НА РУССКОМ ЯЗЫКЕ (только по контексту с обязательными ссылками):`,

	driven.PromptTT: `Ты инженер-технолог, специализирующийся на создании технических требований (ТТ) на основе нормативных документов.

На основе следующего контекста из нормативных документов создай технические требования для запроса инженера.

СТРУКТУРА ТЕХНИЧЕСКИХ ТРЕБОВАНИЙ:
1. Общие положения
2. Технические характеристики
3. Требования к материалам
4. Процесс производства/испытаний
5. Нормы контроля качества
6. Упаковка и маркировка
7. Ссылки на нормы

КРИТИЧЕСКИ ВАЖНЫЕ ПРАВИЛА:
- ОТВЕЧАЙ ТОЛЬКО НА РУССКОМ ЯЗЫКЕ - ЗАПРЕЩЕНЫ ответы на английском или других языках
- Используй точные термины из контекста нормативных документов
- Ссылайся на конкретные пункты и разделы документов
- Если информации недостаточно, укажи это и используй общепринятые стандарты
- Будь конкретен и измеряем
- Формат: разделенный абзацами, с заголовками пунктов

Контекст из нормативных документов:
%[1]s

Запрос: %[2]s

Сгенерируй технические требования ТОЛЬКО НА РУССКОМ ЯЗЫКЕ:`,
}

// DefaultPrompt returns the embedded template for name.
func DefaultPrompt(name string) (string, bool) {
	prompt, ok := defaultPrompts[name]
	return prompt, ok
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.normrag/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".normrag", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// A user file that lost one of the %[1]s/%[2]s placeholders is ignored in
// favour of the embedded default.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	prompt, err := s.loadFromFile(name)
	if err != nil {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}
	if !hasPlaceholders(prompt) {
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			logger.Warn("Prompt %s is missing %s or %s, using the built-in default",
				name, contextPlaceholder, questionPlaceholder)
			prompt = defaultPrompt
		}
	}

	s.mu.Lock()
	if cached, ok := s.cache[name]; ok {
		prompt = cached
	} else {
		s.cache[name] = prompt
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

func hasPlaceholders(prompt string) bool {
	return strings.Contains(prompt, contextPlaceholder) && strings.Contains(prompt, questionPlaceholder)
}

// initialise creates the prompt directory and default files.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(s.promptDir, name+".txt"))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil
	}

	content := `# normrag prompts

This directory holds the prompt templates sent to the language model.

## Files

- ` + "`search.txt`" + ` - strict answers from the normative documents
- ` + "`tt.txt`" + ` - generation of technical requirements (ТТ)

## Placeholders

Both templates use Go fmt indexed placeholders:
- ` + "`%[1]s`" + ` - the retrieved context block
- ` + "`%[2]s`" + ` - the user's question

A template missing either placeholder is ignored and the built-in default
is used instead. Delete a file to restore its default on the next run.
`
	return os.WriteFile(path, []byte(content), 0600)
}
