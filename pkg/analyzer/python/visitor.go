package python

// visitorProgram is the embedded analysis program handed to the
// interpreter as inline code. It reads the source from stdin, walks the
// native abstract syntax tree, and writes exactly one JSON object to
// stdout. Diagnostics go to stderr only. The reply shape is validated
// on the Go side before use.
const visitorProgram = `
import ast
import json
import sys

FILE_READ = ("open",)
FILE_WRITE_PREFIXES = ("os.remove", "os.unlink", "os.rename", "os.makedirs",
                       "os.mkdir", "os.rmdir", "shutil.")
NETWORK_PREFIXES = ("requests.", "urllib.", "http.client.", "socket.",
                    "aiohttp.", "httpx.")
RANDOM_PREFIXES = ("random.", "secrets.", "uuid.uuid4")
TIME_PREFIXES = ("time.time", "time.monotonic", "datetime.now",
                 "datetime.datetime.now", "datetime.utcnow",
                 "datetime.datetime.utcnow")
CONFIG_PREFIXES = ("os.environ", "os.getenv", "configparser.")
LOG_PREFIXES = ("logging.", "logger.", "log.")
PROC_PREFIXES = ("subprocess.", "os.system", "os.popen")


def flatten(node):
    parts = []
    while isinstance(node, ast.Attribute):
        parts.append(node.attr)
        node = node.value
    if isinstance(node, ast.Name):
        parts.append(node.id)
    elif isinstance(node, ast.Call):
        pass  # call-valued receiver: chain restarts after it
    elif not parts:
        return ""
    parts.reverse()
    return ".".join(parts)


def open_mode_writes(call):
    for i, arg in enumerate(call.args):
        if i == 1 and isinstance(arg, ast.Constant) and isinstance(arg.value, str):
            return any(ch in arg.value for ch in "wax+")
    for kw in call.keywords:
        if kw.arg == "mode" and isinstance(kw.value, ast.Constant) \
                and isinstance(kw.value.value, str):
            return any(ch in kw.value.value for ch in "wax+")
    return False


class Collector(ast.NodeVisitor):
    def __init__(self):
        self.functions = []
        self.call_order = []
        self.dependencies = set()
        self.globals_written = set()
        self.globals_read = set()
        self.shared_state = set()
        self.inputs = set()
        self.outputs = set()
        self.side_effects = set()
        self.class_stack = []
        self.scope_stack = [set()]  # module scope at index 0
        self.declared_global = [set()]

    # -- scope helpers --

    def push_scope(self):
        self.scope_stack.append(set())
        self.declared_global.append(set())

    def pop_scope(self):
        self.scope_stack.pop()
        self.declared_global.pop()

    def declare(self, name):
        self.scope_stack[-1].add(name)

    def is_local(self, name):
        for names in reversed(self.scope_stack[1:]):
            if name in names:
                return True
        return False

    def write_name(self, name):
        if len(self.scope_stack) == 1:
            self.scope_stack[0].add(name)
            self.globals_written.add(name)
        elif name in self.declared_global[-1]:
            self.globals_written.add(name)
        else:
            self.declare(name)

    # -- declarations --

    def qualified(self, name):
        if self.class_stack:
            return self.class_stack[-1] + "." + name
        return name

    def visit_FunctionDef(self, node):
        self.functions.append(self.qualified(node.name))
        self.declare(node.name)
        self.push_scope()
        args = node.args
        for a in (args.posonlyargs + args.args + args.kwonlyargs):
            self.declare(a.arg)
        if args.vararg:
            self.declare(args.vararg.arg)
        if args.kwarg:
            self.declare(args.kwarg.arg)
        for stmt in node.body:
            self.visit(stmt)
        self.pop_scope()

    visit_AsyncFunctionDef = visit_FunctionDef

    def visit_ClassDef(self, node):
        self.declare(node.name)
        self.class_stack.append(node.name)
        for stmt in node.body:
            if isinstance(stmt, ast.Assign):
                for target in stmt.targets:
                    if isinstance(target, ast.Name):
                        self.shared_state.add(node.name + "." + target.id)
            self.visit(stmt)
        self.class_stack.pop()

    def visit_Global(self, node):
        for name in node.names:
            self.declared_global[-1].add(name)

    visit_Nonlocal = visit_Global

    def visit_Import(self, node):
        for alias in node.names:
            self.dependencies.add(alias.name)
            self.declare((alias.asname or alias.name).split(".")[0])

    def visit_ImportFrom(self, node):
        self.dependencies.add("." * node.level + (node.module or ""))
        for alias in node.names:
            self.declare(alias.asname or alias.name)

    def visit_Assign(self, node):
        for target in node.targets:
            for name_node in ast.walk(target):
                if isinstance(name_node, ast.Name):
                    self.write_name(name_node.id)
        self.visit(node.value)

    def visit_AugAssign(self, node):
        if isinstance(node.target, ast.Name):
            self.write_name(node.target.id)
        self.visit(node.value)

    def visit_Name(self, node):
        if isinstance(node.ctx, ast.Load):
            name = node.id
            if not self.is_local(name) and name in self.scope_stack[0] \
                    and len(self.scope_stack) > 1:
                self.globals_read.add(name)
        self.generic_visit(node)

    # -- calls --

    def visit_Call(self, node):
        chain = flatten(node.func)
        if chain:
            self.call_order.append(chain)
            self.classify(chain, node)
        self.generic_visit(node)

    def classify(self, chain, call):
        if chain in FILE_READ:
            if open_mode_writes(call):
                self.outputs.add("FILE:" + chain + "()")
                self.side_effects.add("FILE:write")
            else:
                self.inputs.add("FILE:" + chain + "()")
                self.side_effects.add("FILE:read")
        elif chain.startswith(FILE_WRITE_PREFIXES):
            self.outputs.add("FILE:" + chain + "()")
            self.side_effects.add("FILE:write")
        elif chain == "print":
            self.outputs.add("LOG:print()")
            self.side_effects.add("LOG:print")
        elif chain.startswith(LOG_PREFIXES):
            self.outputs.add("LOG:" + chain + "()")
            self.side_effects.add("LOG:logger")
        elif chain == "input":
            self.inputs.add("USER:input()")
            self.side_effects.add("USER:input")
        elif chain.startswith(NETWORK_PREFIXES):
            self.inputs.add("NETWORK:" + chain + "()")
            self.side_effects.add("NETWORK:request")
        elif chain.startswith(RANDOM_PREFIXES):
            self.side_effects.add("RANDOM")
        elif chain.startswith(TIME_PREFIXES):
            self.side_effects.add("TIME")
        elif chain.startswith(CONFIG_PREFIXES):
            self.inputs.add("CONFIG:" + chain + "()")
            self.side_effects.add("CONFIG:read")
        elif chain.startswith(PROC_PREFIXES):
            self.side_effects.add("PROC:start")


def main():
    source = sys.stdin.read()
    try:
        tree = ast.parse(source)
    except SyntaxError as exc:
        json.dump({"error": "syntax error: %s" % exc}, sys.stdout)
        return
    c = Collector()
    c.visit(tree)
    json.dump({
        "functions": sorted(set(c.functions)),
        "call_order": c.call_order,
        "dependencies": sorted(c.dependencies),
        "data_flow": {
            "globals_written": sorted(c.globals_written),
            "globals_read": sorted(c.globals_read),
            "shared_state": sorted(c.shared_state),
        },
        "io_summary": {
            "inputs": sorted(c.inputs),
            "outputs": sorted(c.outputs),
        },
        "side_effects": sorted(c.side_effects),
    }, sys.stdout)


main()
`
