package threaddump

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threaddump-analysis/internal/parser"
	"github.com/threaddump-analysis/internal/testutil"
	"github.com/threaddump-analysis/pkg/model"
)

func threadNames(threads []*model.ThreadRecord) []string {
	names := make([]string, 0, len(threads))
	for _, t := range threads {
		names = append(names, t.Name)
	}
	return names
}

func TestNewParser(t *testing.T) {
	p := NewParser(nil)

	assert.NotNil(t, p)
	assert.Equal(t, "threaddump", p.Name())
	assert.Contains(t, p.SupportedFormats(), "jstack")
}

func TestParseString_SingleThread(t *testing.T) {
	input := "\"main\" #1 prio=5 os_prio=0 tid=0x7f daemon nid=0x1 runnable\n" +
		" java.lang.Thread.State: RUNNABLE\n" +
		" at java.lang.Thread.run(Thread.java:748)"

	threads := ParseString(input)

	require.Len(t, threads, 1)
	th := threads[0]
	assert.Equal(t, "main", th.Name)
	require.NotNil(t, th.ThreadID)
	assert.Equal(t, "0x7f", *th.ThreadID)
	require.NotNil(t, th.NativeID)
	assert.Equal(t, "0x1", *th.NativeID)
	require.NotNil(t, th.Priority)
	assert.Equal(t, 5, *th.Priority)
	assert.True(t, th.Daemon)
	assert.Equal(t, model.ThreadStateRunnable, th.State)
	assert.Equal(t, []string{"java.lang.Thread.run(Thread.java:748)"}, th.StackFrames)
	assert.Empty(t, th.LockIdentifiers)
	assert.Equal(t, " java.lang.Thread.State: RUNNABLE\n at java.lang.Thread.run(Thread.java:748)", th.RawTrailingTrace)
}

func TestParseString_EmptyAndGarbage(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t\n"},
		{"plain text", "hello world\nthis is not a thread dump"},
		{"binary", "\x00\x01\x02\xff\xfe\"\x00"},
		{"empty name", "\"\" #1 tid=0x1\n   java.lang.Thread.State: RUNNABLE"},
		{"unterminated name", "\"main #1 tid=0x1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threads := ParseString(tt.input)
			assert.NotNil(t, threads)
			assert.Empty(t, threads)
		})
	}
}

func TestParseString_MissingOptionalFields(t *testing.T) {
	threads := ParseString("\"GC task thread#0 (ParallelGC)\" os_prio=0 runnable\n")

	require.Len(t, threads, 1)
	th := threads[0]
	assert.Equal(t, "GC task thread#0 (ParallelGC)", th.Name)
	assert.Nil(t, th.ThreadID)
	assert.Nil(t, th.NativeID)
	assert.Nil(t, th.Priority, "os_prio must not be taken as prio")
	assert.False(t, th.Daemon)
	assert.Equal(t, model.ThreadStateUnknown, th.State)
	assert.Empty(t, th.RawTrailingTrace)
}

func TestParseString_HeaderCaseInsensitiveIDs(t *testing.T) {
	threads := ParseString("\"w\" TID=0xABC NID=0xDef\n")

	require.Len(t, threads, 1)
	assert.Equal(t, "0xABC", *threads[0].ThreadID)
	assert.Equal(t, "0xDef", *threads[0].NativeID)
}

func TestParseString_UnrecognizedStateKeptVerbatim(t *testing.T) {
	threads := ParseString("\"t\" tid=0x1\n   java.lang.Thread.State: NEW\n")

	require.Len(t, threads, 1)
	assert.Equal(t, model.ThreadState("NEW"), threads[0].State)
}

func TestParseString_StateMarkerWithoutValue(t *testing.T) {
	threads := ParseString("\"t\" tid=0x1\n   java.lang.Thread.State:\n   at a.b.C.d(C.java:1)")

	require.Len(t, threads, 1)
	assert.Equal(t, model.ThreadStateUnknown, threads[0].State)
	assert.True(t, strings.HasPrefix(threads[0].RawTrailingTrace, "   java.lang.Thread.State:"))
}

func TestParseString_StuckOverride(t *testing.T) {
	t.Run("runnable becomes stucked", func(t *testing.T) {
		threads := ParseString("\"[STUCK] ExecuteThread: '1'\" tid=0x1\n   java.lang.Thread.State: RUNNABLE\n")
		require.Len(t, threads, 1)
		assert.Equal(t, model.ThreadStateStucked, threads[0].State)
	})

	t.Run("case insensitive", func(t *testing.T) {
		threads := ParseString("\"exec\" tid=0x1 [stuck]\n   java.lang.Thread.State: RUNNABLE\n")
		require.Len(t, threads, 1)
		assert.Equal(t, model.ThreadStateStucked, threads[0].State)
	})

	t.Run("non runnable untouched", func(t *testing.T) {
		threads := ParseString("\"exec\" tid=0x1 [STUCK]\n   java.lang.Thread.State: BLOCKED (on object monitor)\n")
		require.Len(t, threads, 1)
		assert.Equal(t, model.ThreadStateBlocked, threads[0].State)
	})
}

func TestParseString_LockTokens(t *testing.T) {
	input := "\"t\" tid=0x1\n" +
		"   java.lang.Thread.State: BLOCKED\n" +
		"\tat a.b.C.d(C.java:1) <0x01> and <0x02>\n" +
		"\t- waiting to lock <0xAAA> (a java.lang.Object)\n" +
		"\t- locked <0xbbb> (a java.lang.Object)\n" +
		"\t- waiting on <0xccc> (a java.lang.Object)\n" +
		"\t- parking to wait for  <0xddd> (a java.util.concurrent.locks.AbstractQueuedSynchronizer$ConditionObject)\n" +
		"\t- waiting to re-lock in wait() <0xeee> (a java.lang.Object)\n" +
		"\n" +
		"   Locked ownable synchronizers:\n" +
		"\t- <0xfff> (a java.util.concurrent.locks.ReentrantLock$NonfairSync)\n"

	threads := ParseString(input)

	require.Len(t, threads, 1)
	th := threads[0]
	assert.Equal(t, []string{"<0x01>", "<0x02>", "<0xAAA>", "<0xbbb>", "<0xccc>", "<0xddd>", "<0xeee>", "<0xfff>"}, th.LockIdentifiers)
	assert.Equal(t, []string{"a.b.C.d(C.java:1) <0x01> and <0x02>"}, th.StackFrames)

	expected := []model.LockRef{
		{Token: "<0x01>", Relation: model.LockRelationUnknown},
		{Token: "<0x02>", Relation: model.LockRelationUnknown},
		{Token: "<0xAAA>", Relation: model.LockRelationWaitingFor},
		{Token: "<0xbbb>", Relation: model.LockRelationHeld},
		{Token: "<0xccc>", Relation: model.LockRelationWaitingOn},
		{Token: "<0xddd>", Relation: model.LockRelationWaitingFor},
		{Token: "<0xeee>", Relation: model.LockRelationWaitingFor},
		{Token: "<0xfff>", Relation: model.LockRelationHeld},
	}
	assert.Equal(t, expected, th.LockRefs)
}

func TestParseString_DuplicateLockTokens(t *testing.T) {
	input := "\"t\" tid=0x1\n" +
		"   java.lang.Thread.State: WAITING (on object monitor)\n" +
		"\t- waiting on <0x10> (a java.util.TaskQueue)\n" +
		"\t- locked <0x10> (a java.util.TaskQueue)\n"

	threads := ParseString(input)

	require.Len(t, threads, 1)
	assert.Equal(t, []string{"<0x10>", "<0x10>"}, threads[0].LockIdentifiers)
}

func TestParseString_CRLF(t *testing.T) {
	input := "\"main\" tid=0x1\r\n   java.lang.Thread.State: RUNNABLE\r\n\tat a.B.c(B.java:1)\r\n"

	threads := ParseString(input)

	require.Len(t, threads, 1)
	assert.Equal(t, model.ThreadStateRunnable, threads[0].State)
	assert.Equal(t, []string{"a.B.c(B.java:1)"}, threads[0].StackFrames)
}

func TestParseString_PreambleDropped(t *testing.T) {
	input := "Full thread dump Java HotSpot(TM) 64-Bit Server VM (\"mixed mode\"):\n\n" +
		"\"main\" tid=0x1\n   java.lang.Thread.State: RUNNABLE\n"

	threads := ParseString(input)

	require.Len(t, threads, 1)
	assert.Equal(t, "main", threads[0].Name)
}

func TestParseString_Fixture(t *testing.T) {
	threads := ParseString(testutil.LoadFixtureString(t, "jstack_deadlock.txt"))

	assert.Equal(t, []string{
		"scheduler-1",
		"main",
		"order-worker-1",
		"order-worker-2",
		"Reference Handler",
		"jdbc-pool-3",
		"VM Thread",
	}, threadNames(threads))

	worker := threads[2]
	assert.Equal(t, model.ThreadStateBlocked, worker.State)
	assert.Equal(t, []string{"<0x000000071a2b3c48>", "<0x000000071a2b3d10>"}, worker.LockIdentifiers)
	assert.Equal(t, []string{"<0x000000071a2b3c48>"}, worker.LocksWithRelation(model.LockRelationWaitingFor))
	assert.Equal(t, []string{"<0x000000071a2b3d10>"}, worker.LocksWithRelation(model.LockRelationHeld))

	vm := threads[6]
	assert.Nil(t, vm.Priority)
	assert.Equal(t, model.ThreadStateUnknown, vm.State)
}

func TestParser_Parse(t *testing.T) {
	p := NewParser(nil)

	result, err := p.Parse(context.Background(), testutil.LoadFixtureReader(t, "jstack_deadlock.txt"))

	require.NoError(t, err)
	assert.Len(t, result.Threads, 7)
	assert.Equal(t, 8, result.TotalBlocks)
	assert.Equal(t, 1, result.DroppedBlocks)
	assert.False(t, result.Truncated)
}

func TestParser_Parse_MaxThreads(t *testing.T) {
	p := NewParser(&ParserOptions{MaxThreads: 2})

	result, err := p.Parse(context.Background(), testutil.LoadFixtureReader(t, "jstack_deadlock.txt"))

	require.NoError(t, err)
	assert.Len(t, result.Threads, 2)
	assert.True(t, result.Truncated)
	// Input order main, Reference Handler; output sorted.
	assert.Equal(t, []string{"main", "Reference Handler"}, threadNames(result.Threads))
}

func TestParser_Parse_StrictMode(t *testing.T) {
	p := NewParser(&ParserOptions{StrictMode: true})

	_, err := p.Parse(context.Background(), strings.NewReader("not a dump"))
	assert.True(t, errors.Is(err, parser.ErrInvalidFormat))

	result, err := p.Parse(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, result.Threads)
}

func TestParser_Parse_ContextCanceled(t *testing.T) {
	p := NewParser(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Parse(ctx, strings.NewReader("\"main\" tid=0x1\n"))

	assert.ErrorIs(t, err, context.Canceled)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestParser_Parse_ReadError(t *testing.T) {
	_, err := NewParser(nil).Parse(context.Background(), failingReader{})

	assert.ErrorIs(t, err, parser.ErrReadFailed)
}

func TestFactory_Create(t *testing.T) {
	p, err := NewFactory().Create(WithMaxThreadsOption(3), WithStrictModeOption(true))

	require.NoError(t, err)
	tp, ok := p.(*Parser)
	require.True(t, ok)
	assert.Equal(t, 3, tp.opts.MaxThreads)
	assert.True(t, tp.opts.StrictMode)
}

func TestRegisterWithRegistry(t *testing.T) {
	registry := parser.NewRegistry()

	RegisterWithRegistry(registry)

	p, ok := registry.Get("jstack")
	require.True(t, ok)
	assert.Equal(t, "threaddump", p.Name())
	_, ok = registry.Get("threaddump")
	assert.True(t, ok)
}
