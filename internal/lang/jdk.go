package lang

import (
	"strings"
)

// ObjectType is the universal reference type.
const ObjectType = "java.lang.Object"

// Exception roots used when fabricating exception types.
const (
	CheckedRoot   = "java.lang.Exception"
	UncheckedRoot = "java.lang.RuntimeException"
	ThrowableRoot = "java.lang.Throwable"
)

var javaLang = words(`
	Object String Integer Long Short Byte Character Boolean Double Float Number Void
	Math StrictMath System Thread Runnable Iterable Comparable CharSequence
	StringBuilder StringBuffer Class ClassLoader Enum Record Process ProcessBuilder
	Runtime Throwable Exception RuntimeException Error AutoCloseable Cloneable
	Appendable Readable Override Deprecated SuppressWarnings FunctionalInterface
	SafeVarargs ThreadLocal InheritableThreadLocal StackTraceElement Module Package
	IllegalArgumentException IllegalStateException NullPointerException
	IndexOutOfBoundsException ArrayIndexOutOfBoundsException
	StringIndexOutOfBoundsException ClassCastException ArithmeticException
	UnsupportedOperationException CloneNotSupportedException InterruptedException
	NumberFormatException SecurityException ReflectiveOperationException
	ClassNotFoundException NoSuchFieldException NoSuchMethodException
	InstantiationException IllegalAccessException NegativeArraySizeException
	ArrayStoreException IllegalMonitorStateException AssertionError
	OutOfMemoryError StackOverflowError LinkageError NoClassDefFoundError
	ExceptionInInitializerError VirtualMachineError InternalError
	EnumConstantNotPresentException TypeNotPresentException
`)

var platformPackages = map[string]map[string]struct{}{
	"java.util": words(`
		List ArrayList LinkedList Map HashMap LinkedHashMap TreeMap SortedMap NavigableMap
		Set HashSet LinkedHashSet TreeSet SortedSet NavigableSet Collection Collections
		Iterator ListIterator Optional OptionalInt OptionalLong OptionalDouble Objects
		Arrays Queue Deque ArrayDeque PriorityQueue Stack Vector Hashtable Enumeration
		Comparator Random Scanner StringJoiner UUID Date Calendar Locale Properties
		BitSet EnumMap EnumSet IdentityHashMap WeakHashMap AbstractList AbstractMap
		AbstractSet AbstractCollection Spliterator NoSuchElementException
		ConcurrentModificationException Formatter Timer TimerTask
		Currency Base64 IntSummaryStatistics RandomAccess
	`),
	"java.util.function": words(`
		Function BiFunction Consumer BiConsumer Supplier Predicate BiPredicate
		UnaryOperator BinaryOperator IntFunction IntPredicate IntConsumer IntSupplier
		ToIntFunction ToLongFunction ToDoubleFunction LongFunction DoubleFunction
		BooleanSupplier IntUnaryOperator IntBinaryOperator ObjIntConsumer
	`),
	"java.util.concurrent": words(`
		Callable Future CompletableFuture CompletionStage Executor ExecutorService
		Executors ConcurrentHashMap ConcurrentMap CopyOnWriteArrayList TimeUnit
		CountDownLatch Semaphore BlockingQueue LinkedBlockingQueue ThreadFactory
		ExecutionException TimeoutException CancellationException ScheduledExecutorService
		ForkJoinPool ConcurrentLinkedQueue
	`),
	"java.util.concurrent.atomic": words(`AtomicInteger AtomicLong AtomicBoolean AtomicReference`),
	"java.util.concurrent.locks":  words(`Lock ReentrantLock ReadWriteLock ReentrantReadWriteLock Condition`),
	"java.util.stream":            words(`Stream IntStream LongStream DoubleStream Collectors Collector StreamSupport`),
	"java.util.regex":             words(`Pattern Matcher PatternSyntaxException`),
	"java.io": words(`
		IOException UncheckedIOException FileNotFoundException EOFException Closeable
		Serializable File InputStream OutputStream Reader Writer BufferedReader
		BufferedWriter InputStreamReader OutputStreamWriter PrintStream PrintWriter
		StringReader StringWriter FileInputStream FileOutputStream FileReader FileWriter
		ByteArrayInputStream ByteArrayOutputStream ObjectInputStream ObjectOutputStream
		DataInputStream DataOutputStream Flushable Externalizable
	`),
	"java.nio.file":        words(`Path Paths Files FileSystem FileSystems NoSuchFileException StandardOpenOption`),
	"java.nio.charset":     words(`Charset StandardCharsets`),
	"java.nio":             words(`ByteBuffer CharBuffer IntBuffer Buffer ByteOrder`),
	"java.net":             words(`URI URL Socket ServerSocket InetAddress URISyntaxException MalformedURLException`),
	"java.math":            words(`BigInteger BigDecimal RoundingMode MathContext`),
	"java.time":            words(`Instant Duration LocalDate LocalDateTime LocalTime ZonedDateTime ZoneId Clock Period`),
	"java.text":            words(`SimpleDateFormat DateFormat MessageFormat NumberFormat DecimalFormat ParseException`),
	"java.lang.annotation": words(`Annotation Retention RetentionPolicy Target ElementType Documented Inherited Repeatable`),
	"java.lang.reflect":    words(`Method Field Constructor Modifier Type ParameterizedType InvocationTargetException Array Proxy InvocationHandler`),
}

var finalClasses = words(`
	String Integer Long Short Byte Character Boolean Double Float Void Math StrictMath
	System Class StringBuilder StringBuffer Optional OptionalInt OptionalLong
	OptionalDouble Objects Arrays Collections UUID Pattern Matcher Files Paths
`)

// supertypes of well-known platform types, by qualified name.
var platformSupers = map[string][]string{
	"java.lang.String":                         {"java.lang.CharSequence", "java.lang.Comparable"},
	"java.lang.StringBuilder":                  {"java.lang.CharSequence"},
	"java.lang.Integer":                        {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Long":                           {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Short":                          {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Byte":                           {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Double":                         {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Float":                          {"java.lang.Number", "java.lang.Comparable"},
	"java.lang.Exception":                      {"java.lang.Throwable"},
	"java.lang.Error":                          {"java.lang.Throwable"},
	"java.lang.RuntimeException":               {"java.lang.Exception"},
	"java.lang.IllegalArgumentException":       {"java.lang.RuntimeException"},
	"java.lang.IllegalStateException":          {"java.lang.RuntimeException"},
	"java.lang.NullPointerException":           {"java.lang.RuntimeException"},
	"java.lang.IndexOutOfBoundsException":      {"java.lang.RuntimeException"},
	"java.lang.ClassCastException":             {"java.lang.RuntimeException"},
	"java.lang.ArithmeticException":            {"java.lang.RuntimeException"},
	"java.lang.UnsupportedOperationException":  {"java.lang.RuntimeException"},
	"java.lang.NumberFormatException":          {"java.lang.IllegalArgumentException"},
	"java.lang.ArrayIndexOutOfBoundsException": {"java.lang.IndexOutOfBoundsException"},
	"java.lang.InterruptedException":           {"java.lang.Exception"},
	"java.lang.CloneNotSupportedException":     {"java.lang.Exception"},
	"java.lang.ReflectiveOperationException":   {"java.lang.Exception"},
	"java.lang.ClassNotFoundException":         {"java.lang.ReflectiveOperationException"},
	"java.lang.AssertionError":                 {"java.lang.Error"},
	"java.io.IOException":                      {"java.lang.Exception"},
	"java.io.UncheckedIOException":             {"java.lang.RuntimeException"},
	"java.io.FileNotFoundException":            {"java.io.IOException"},
	"java.io.Closeable":                        {"java.lang.AutoCloseable"},
	"java.util.Collection":                     {"java.lang.Iterable"},
	"java.util.List":                           {"java.util.Collection"},
	"java.util.Set":                            {"java.util.Collection"},
	"java.util.Queue":                          {"java.util.Collection"},
	"java.util.Deque":                          {"java.util.Queue"},
	"java.util.SortedSet":                      {"java.util.Set"},
	"java.util.NavigableSet":                   {"java.util.SortedSet"},
	"java.util.SortedMap":                      {"java.util.Map"},
	"java.util.NavigableMap":                   {"java.util.SortedMap"},
	"java.util.ArrayList":                      {"java.util.List"},
	"java.util.LinkedList":                     {"java.util.List", "java.util.Deque"},
	"java.util.HashSet":                        {"java.util.Set"},
	"java.util.LinkedHashSet":                  {"java.util.HashSet"},
	"java.util.TreeSet":                        {"java.util.NavigableSet"},
	"java.util.HashMap":                        {"java.util.Map"},
	"java.util.LinkedHashMap":                  {"java.util.HashMap"},
	"java.util.TreeMap":                        {"java.util.NavigableMap"},
	"java.util.ArrayDeque":                     {"java.util.Deque"},
	"java.util.NoSuchElementException":         {"java.lang.RuntimeException"},
	"java.util.concurrent.ExecutionException":  {"java.lang.Exception"},
	"java.util.concurrent.TimeoutException":    {"java.lang.Exception"},
}

// MethodShape is the name and arity of an abstract method on a platform interface.
type MethodShape struct {
	Name  string
	Arity int
}

var platformAbstract = map[string][]MethodShape{
	"java.lang.Runnable":                 {{"run", 0}},
	"java.lang.Comparable":               {{"compareTo", 1}},
	"java.lang.Iterable":                 {{"iterator", 0}},
	"java.lang.AutoCloseable":            {{"close", 0}},
	"java.lang.CharSequence":             {{"length", 0}, {"charAt", 1}, {"subSequence", 2}},
	"java.io.Closeable":                  {{"close", 0}},
	"java.util.Comparator":               {{"compare", 2}},
	"java.util.Iterator":                 {{"hasNext", 0}, {"next", 0}},
	"java.util.concurrent.Callable":      {{"call", 0}},
	"java.util.function.Supplier":        {{"get", 0}},
	"java.util.function.Function":        {{"apply", 1}},
	"java.util.function.BiFunction":      {{"apply", 2}},
	"java.util.function.Consumer":        {{"accept", 1}},
	"java.util.function.BiConsumer":      {{"accept", 2}},
	"java.util.function.Predicate":       {{"test", 1}},
	"java.util.function.BiPredicate":     {{"test", 2}},
	"java.util.function.UnaryOperator":   {{"apply", 1}},
	"java.util.function.BinaryOperator":  {{"apply", 2}},
	"java.util.function.BooleanSupplier": {{"getAsBoolean", 0}},
}

// FunctionalInterface describes a platform functional interface usable as a
// lambda target in place of a fabricated one.
type FunctionalInterface struct {
	QName      string
	Method     string
	Arity      int
	Returns    bool
	TypeParams int
}

var functionalInterfaces = []FunctionalInterface{
	{"java.lang.Runnable", "run", 0, false, 0},
	{"java.util.function.Supplier", "get", 0, true, 1},
	{"java.util.function.Consumer", "accept", 1, false, 1},
	{"java.util.function.Function", "apply", 1, true, 2},
	{"java.util.function.BiConsumer", "accept", 2, false, 2},
	{"java.util.function.BiFunction", "apply", 2, true, 3},
}

// PlatformFunctional returns the platform functional interface matching a lambda
// of the given arity and value shape.
func PlatformFunctional(arity int, returns bool) (FunctionalInterface, bool) {
	for _, f := range functionalInterfaces {
		if f.Arity == arity && f.Returns == returns {
			return f, true
		}
	}
	return FunctionalInterface{}, false
}

// FunctionalByName returns the functional interface description for a qualified name.
func FunctionalByName(qname string) (FunctionalInterface, bool) {
	for _, f := range functionalInterfaces {
		if f.QName == qname {
			return f, true
		}
	}
	return FunctionalInterface{}, false
}

// JavaLang returns the qualified name of an implicitly imported java.lang type.
func JavaLang(simple string) (string, bool) {
	if _, ok := javaLang[simple]; ok {
		return "java.lang." + simple, true
	}
	return "", false
}

// IsPlatformPackage reports whether pkg belongs to the platform library. Types are
// never fabricated into such packages.
func IsPlatformPackage(pkg string) bool {
	for _, p := range []string{"java.", "javax.", "jdk.", "sun."} {
		if strings.HasPrefix(pkg+".", p) {
			return true
		}
	}
	return false
}

// IsPlatformType reports whether qname is a known platform type.
func IsPlatformType(qname string) bool {
	pkg, name := splitQName(qname)
	if pkg == "java.lang" {
		_, ok := javaLang[name]
		return ok
	}
	names, ok := platformPackages[pkg]
	if !ok {
		return false
	}
	_, ok = names[name]
	return ok
}

// IsFinalPlatformClass reports whether a platform class cannot be extended, by
// simple or qualified name.
func IsFinalPlatformClass(name string) bool {
	_, ok := finalClasses[simple(name)]
	return ok && (!strings.Contains(name, ".") || IsPlatformPackage(qualifier(name)))
}

// PlatformSupertypes returns the direct supertypes of a known platform type.
func PlatformSupertypes(qname string) []string {
	return platformSupers[qname]
}

// IsPlatformSubtype reports whether sub is sup or transitively extends it.
func IsPlatformSubtype(sub, sup string) bool {
	if sub == sup || sup == ObjectType {
		return true
	}
	for _, s := range platformSupers[sub] {
		if IsPlatformSubtype(s, sup) {
			return true
		}
	}
	return false
}

// IsUncheckedException reports whether a platform exception type is unchecked.
func IsUncheckedException(qname string) bool {
	return IsPlatformSubtype(qname, UncheckedRoot) || IsPlatformSubtype(qname, "java.lang.Error")
}

var platformInterfaces = words(`
	java.util.Map java.util.Collection java.util.List java.util.Set java.util.Queue
	java.util.Deque java.util.SortedSet java.util.NavigableSet java.util.SortedMap
	java.util.NavigableMap java.util.Map.Entry java.util.ListIterator
	java.io.Serializable java.lang.Cloneable java.lang.Appendable java.lang.Readable
	java.util.EventListener java.util.RandomAccess
`)

// IsPlatformInterface reports whether a known platform type is an interface.
func IsPlatformInterface(qname string) bool {
	if _, ok := platformAbstract[qname]; ok {
		return true
	}
	_, ok := platformInterfaces[qname]
	return ok
}

// AbstractMethods returns the abstract methods of a well-known platform interface.
// ok is false when the type is unknown, in which case callers must assume any
// @Override method may be implementing one.
func AbstractMethods(qname string) (shapes []MethodShape, ok bool) {
	shapes, ok = platformAbstract[qname]
	return shapes, ok
}

var boxes = map[string]string{
	"boolean": "java.lang.Boolean", "byte": "java.lang.Byte", "char": "java.lang.Character",
	"short": "java.lang.Short", "int": "java.lang.Integer", "long": "java.lang.Long",
	"float": "java.lang.Float", "double": "java.lang.Double",
}

// Box returns the wrapper class of a primitive.
func Box(prim string) (string, bool) {
	w, ok := boxes[prim]
	return w, ok
}

// Unbox returns the primitive of a wrapper class, by simple or qualified name.
func Unbox(wrapper string) (string, bool) {
	for p, w := range boxes {
		if w == wrapper || simple(w) == wrapper {
			return p, true
		}
	}
	return "", false
}

var numericRank = map[string]int{
	"byte": 1, "short": 2, "char": 2, "int": 3, "long": 4, "float": 5, "double": 6,
}

// IsNumeric reports whether prim is a numeric primitive.
func IsNumeric(prim string) bool {
	_, ok := numericRank[prim]
	return ok
}

// WidenPrimitive returns the wider of two numeric primitives, following the
// widening primitive conversions. ok is false if either is not numeric.
func WidenPrimitive(a, b string) (string, bool) {
	ra, okA := numericRank[a]
	rb, okB := numericRank[b]
	if !okA || !okB {
		return "", false
	}
	if a == b {
		return a, true
	}
	// char and short do not widen into one another.
	if (a == "char" && b == "short") || (a == "short" && b == "char") ||
		(a == "char" && b == "byte") || (a == "byte" && b == "char") {
		return "int", true
	}
	if ra >= rb {
		return a, true
	}
	return b, true
}

// WidensTo reports whether primitive a converts to b by identity or a
// widening primitive conversion.
func WidensTo(a, b string) bool {
	if a == b {
		return true
	}
	ra, okA := numericRank[a]
	rb, okB := numericRank[b]
	if !okA || !okB || b == "char" || ra >= rb {
		return false
	}
	return a != "char" || rb > numericRank["short"]
}

// NarrowPrimitive returns the one of a and b that widens to the other. ok is
// false when neither does, as for char and short.
func NarrowPrimitive(a, b string) (string, bool) {
	switch {
	case WidensTo(a, b):
		return a, true
	case WidensTo(b, a):
		return b, true
	}
	return "", false
}

var (
	numericPrimitives  = []string{"int", "long", "double", "float", "short", "byte", "char"}
	integralPrimitives = []string{"int", "long", "short", "byte", "char"}
)

// OperandTypes returns the operand types a binary operator accepts, most
// preferred first.
func OperandTypes(op string) []string {
	switch op {
	case "*", "/", "%", "-", "<", "<=", ">", ">=":
		return numericPrimitives
	case "+":
		return append(append([]string{}, numericPrimitives...), "java.lang.String")
	case ">>", ">>>", "<<":
		return integralPrimitives
	case "==", "!=", "^", "&", "|":
		return append(append([]string{}, numericPrimitives...), "boolean")
	case "||", "&&", "!":
		return []string{"boolean"}
	}
	return nil
}

// DefaultValue returns the language default value literal for a type name.
func DefaultValue(t string) string {
	switch t {
	case "boolean":
		return "false"
	case "char":
		return `'\0'`
	case "float":
		return "0.0f"
	case "double":
		return "0.0"
	case "long":
		return "0L"
	case "byte", "short", "int":
		return "0"
	}
	return "null"
}

func splitQName(q string) (pkg, name string) {
	return qualifier(q), simple(q)
}

func simple(q string) string {
	if i := strings.LastIndex(q, "."); i >= 0 {
		return q[i+1:]
	}
	return q
}

func qualifier(q string) string {
	if i := strings.LastIndex(q, "."); i >= 0 {
		return q[:i]
	}
	return ""
}

func words(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}
